package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
)

func TestCLIError(t *testing.T) {
	t.Run("Error with cause", func(t *testing.T) {
		cause := errors.New("root cause")
		e := NewCLIError("something failed", "try this", cause)
		if e.Error() != "something failed: root cause" {
			t.Fatalf("unexpected: %s", e.Error())
		}
		if e.ExitCode != 1 {
			t.Fatalf("expected exit code 1, got %d", e.ExitCode)
		}
	})

	t.Run("Error without cause", func(t *testing.T) {
		e := NewCLIError("something failed", "try this", nil)
		if e.Error() != "something failed" {
			t.Fatalf("unexpected: %s", e.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root")
		e := NewCLIError("msg", "", cause)
		if !errors.Is(e, cause) {
			t.Fatal("errors.Is should match wrapped cause")
		}
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint string
		wantCLI  bool
	}{
		{
			name: "nil returns nil",
			err:  nil,
		},
		{
			name:     "ErrNoActivePlan",
			err:      planning.ErrNoActivePlan,
			wantHint: "Run 'launchpath plan generate <user>' to create one",
			wantCLI:  true,
		},
		{
			name:     "wrapped ErrTaskNotFound",
			err:      fmt.Errorf("load: %w", planning.ErrTaskNotFound),
			wantHint: "Run 'launchpath plan show <user>' to list task ids",
			wantCLI:  true,
		},
		{
			name:     "ErrPlanNotResolved",
			err:      planning.ErrPlanNotResolved,
			wantHint: "Mark the remaining tasks done or skipped first",
			wantCLI:  true,
		},
		{
			name:     "ErrUserNotFound",
			err:      profile.ErrUserNotFound,
			wantHint: "Run 'launchpath profile import <file>' first",
			wantCLI:  true,
		},
		{
			name:     "ErrMessageNotFound",
			err:      delivery.ErrMessageNotFound,
			wantHint: "Run 'launchpath delivery history <user>' to list provider ids",
			wantCLI:  true,
		},
		{
			name:     "TransitionError",
			err:      &planning.TransitionError{TaskID: "t1", FromStatus: "DONE", ToStatus: "DONE", Event: "complete"},
			wantHint: "Task 't1' is 'DONE'; only PENDING or SENT tasks can change",
			wantCLI:  true,
		},
		{
			name: "unknown error passes through",
			err:  errors.New("something else"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			var cliErr *CLIError
			isCLI := errors.As(got, &cliErr)
			if isCLI != tt.wantCLI {
				t.Fatalf("CLIError = %v, want %v (%v)", isCLI, tt.wantCLI, got)
			}
			if !isCLI {
				if got != tt.err {
					t.Errorf("unmapped error should be returned as-is")
				}
				return
			}
			if cliErr.Hint != tt.wantHint {
				t.Errorf("hint = %q, want %q", cliErr.Hint, tt.wantHint)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("mapped error should wrap the original")
			}
		})
	}
}
