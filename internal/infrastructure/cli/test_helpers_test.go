package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	return buf.String()
}

// newDataDir returns a fresh data directory wired to the mock AI
// provider and the log-only delivery gateway.
func newDataDir(t *testing.T) string {
	t.Helper()

	t.Setenv("LAUNCHPATH_REASONING_PROVIDER", "mock")
	t.Setenv("LAUNCHPATH_FORMATTING_PROVIDER", "mock")
	for _, key := range []string{"TWILIO_ACCOUNT_SID", "SENDGRID_API_KEY", "LAUNCHPATH_WEBHOOK_URL", "LAUNCHPATH_DB_PATH"} {
		t.Setenv(key, "")
	}
	return filepath.Join(t.TempDir(), "data")
}

func resetFlags() {
	planDays, planStart, planJSON, planAdjustReason = 0, "", false, "manual request"
	taskResponse, taskJSON = "", false
	scheduleAt, scheduleJSON = "", false
	deliveryError, deliveryLimit, deliveryJSON = "", 20, false
	progressJSON = false
	auditAction, auditJSON = "", false
	profileListJSON = false
	initForce, initProvider = false, ""
	if f := RootCmd.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
	}
}

// runCLI executes the root command against dir and returns its stdout.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	resetFlags()
	var err error
	out := captureStdout(t, func() {
		RootCmd.SetArgs(append([]string{"--data-dir", dir}, args...))
		err = Execute()
	})
	return out, err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()

	out, err := runCLI(t, dir, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

const testProfiles = `
- user:
    id: ana
    email: ana@example.com
    phone: "+15550100"
    first_name: Ana
    timezone: UTC
    daily_send_hour: 9
    onboarded: true
  business:
    id: bp-ana
    business_name: Ana's Candles
    business_type: candles
`

func writeProfiles(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(testProfiles), 0o600); err != nil {
		t.Fatalf("write profiles: %v", err)
	}
	return path
}
