package delivery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
)

func TestDeadLetterStore_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deadletters.jsonl")
	store := NewDeadLetterStore(path)

	for _, ch := range []delivery.Channel{delivery.ChannelSMS, delivery.ChannelEmail} {
		dl := DeadLetter{
			FailedAt: time.Now(),
			URL:      "https://example.com/hook",
			Channel:  ch,
			UserID:   "u1",
			Payload:  `{"text":"hi"}`,
			Error:    "connection refused",
			Attempts: 3,
		}
		if err := store.Append(dl); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Channel != delivery.ChannelEmail || entries[0].Payload != `{"text":"hi"}` {
		t.Errorf("unexpected entries %+v", entries)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestDeadLetterStore_ReadAll_MissingFile(t *testing.T) {
	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "nonexistent.jsonl"))

	entries, err := store.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Errorf("expected nil entries for missing file, got %v", entries)
	}
}
