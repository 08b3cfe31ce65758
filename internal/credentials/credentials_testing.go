package credentials

import (
	"fmt"
	"testing"

	"github.com/zalando/go-keyring"
)

// Test helpers for code that touches the OS keyring. Each test gets its own
// keyring service name so parallel tests and real credentials on a
// developer's machine never collide, and cleanup runs via t.Cleanup.

// TestManager wraps Manager with an isolated per-test service name.
type TestManager struct {
	*Manager
	testService string
	t           *testing.T
}

// NewTestManager creates an isolated credential manager for a test and
// registers automatic cleanup of every key it may have written.
func NewTestManager(t *testing.T) *TestManager {
	t.Helper()

	testService := fmt.Sprintf("wpmcp-test-%s", t.Name())

	tm := &TestManager{
		Manager:     &Manager{service: testService},
		testService: testService,
		t:           t,
	}

	t.Cleanup(func() {
		tm.CleanupKeys()
	})

	return tm
}

// CleanupKeys removes all test credentials from the keyring. Registered
// automatically by NewTestManager; safe to call again manually.
func (tm *TestManager) CleanupKeys() {
	tm.t.Helper()

	_ = keyring.Delete(tm.testService, appPasswordKey)
	_ = keyring.Delete(tm.testService, packTokenKey)
}

// RequireKeyring skips the test when the OS keyring is not usable (headless
// CI without a secret service, for example).
func RequireKeyring(t *testing.T) {
	t.Helper()

	testService := fmt.Sprintf("wpmcp-keyring-probe-%s", t.Name())
	if err := keyring.Set(testService, "probe", "probe"); err != nil {
		t.Skipf("Keyring not available, skipping test: %v", err)
	}
	_ = keyring.Delete(testService, "probe")
}

// TestPassword returns a correctly shaped but fake application password.
func TestPassword() string {
	return "abcd EFGH 1234 ijkl MNOP 5678"
}
