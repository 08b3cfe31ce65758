package setupmenu

import (
	"context"
	"errors"
	"strings"
	"testing"

	"wpmcp/internal/config"
	"wpmcp/internal/credentials"
	"wpmcp/internal/logging"
	"wpmcp/internal/tui/helpers"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T) *SetupModel {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	ctx := helpers.NewUIContext(100, 30, logger)
	return NewSetupModel(ctx)
}

func typeString(m *SetupModel, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func pressEnter(m *SetupModel) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func pressEsc(m *SetupModel) {
	m.Update(tea.KeyMsg{Type: tea.KeyEscape})
}

// deliver executes a command returned by Update and feeds its message back
// into the model. Only used for commands known to complete immediately
// (validation errors, the stubbed verifier, the save step).
func deliver(t *testing.T, m *SetupModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("Expected a command, got nil")
	}
	m.Update(cmd())
}

// advanceToSiteURL moves a fresh model past the welcome screen.
func advanceToSiteURL(t *testing.T, m *SetupModel) {
	t.Helper()
	pressEnter(m)
	if m.state != SetupStateSiteURL {
		t.Fatalf("Expected SetupStateSiteURL, got %v", m.state)
	}
}

// advanceToPassword walks a fresh model to the password input.
func advanceToPassword(t *testing.T, m *SetupModel) {
	t.Helper()
	advanceToSiteURL(t, m)
	typeString(m, "https://example.com")
	pressEnter(m)
	typeString(m, "editor")
	pressEnter(m)
	if m.state != SetupStatePassword {
		t.Fatalf("Expected SetupStatePassword, got %v", m.state)
	}
}

func TestNewSetupModelInitialState(t *testing.T) {
	m := newTestModel(t)

	if m.state != SetupStateWelcome {
		t.Errorf("Expected initial state SetupStateWelcome, got %v", m.state)
	}
	if m.Cancelled || m.Completed {
		t.Error("Fresh model should be neither cancelled nor completed")
	}
	if m.verify == nil {
		t.Error("Default verifier should be set")
	}
}

func TestWelcomeAdvancesToSiteURL(t *testing.T) {
	m := newTestModel(t)
	advanceToSiteURL(t, m)

	if !strings.Contains(m.View(), "Site URL") {
		t.Error("Site URL screen should be rendered")
	}
}

func TestWelcomeCancel(t *testing.T) {
	m := newTestModel(t)
	pressEsc(m)

	if m.state != SetupStateCancelled {
		t.Errorf("Expected SetupStateCancelled, got %v", m.state)
	}
	if !m.Cancelled {
		t.Error("Cancelled flag should be set")
	}
	if !strings.Contains(m.View(), "Setup Cancelled") {
		t.Error("Cancelled screen should be rendered")
	}
}

func TestSiteURLValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		want    string
	}{
		{"valid https", "https://example.com", false, "https://example.com"},
		{"trailing slash trimmed", "https://example.com/", false, "https://example.com"},
		{"subdirectory install", "https://example.com/blog", false, "https://example.com/blog"},
		{"missing scheme", "example.com", true, ""},
		{"empty", "", true, ""},
		{"garbage", "not a url", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			advanceToSiteURL(t, m)
			typeString(m, tt.input)
			cmd := pressEnter(m)

			if tt.wantErr {
				deliver(t, m, cmd)
				if m.state != SetupStateSiteURL {
					t.Errorf("Invalid URL should keep state at SetupStateSiteURL, got %v", m.state)
				}
				if m.layout.GetError() == nil {
					t.Error("Expected a validation error to be displayed")
				}
				return
			}

			if m.state != SetupStateUsername {
				t.Errorf("Expected SetupStateUsername, got %v", m.state)
			}
			if m.SiteURL != tt.want {
				t.Errorf("Expected SiteURL %q, got %q", tt.want, m.SiteURL)
			}
		})
	}
}

func TestSiteURLBackToWelcome(t *testing.T) {
	m := newTestModel(t)
	advanceToSiteURL(t, m)
	pressEsc(m)

	if m.state != SetupStateWelcome {
		t.Errorf("Expected SetupStateWelcome, got %v", m.state)
	}
}

func TestUsernameRequired(t *testing.T) {
	m := newTestModel(t)
	advanceToSiteURL(t, m)
	typeString(m, "https://example.com")
	pressEnter(m)

	cmd := pressEnter(m) // empty username
	deliver(t, m, cmd)

	if m.state != SetupStateUsername {
		t.Errorf("Empty username should keep state at SetupStateUsername, got %v", m.state)
	}
	if m.layout.GetError() == nil {
		t.Error("Expected an error for empty username")
	}
}

func TestPasswordInputIsMasked(t *testing.T) {
	m := newTestModel(t)
	advanceToPassword(t, m)

	if m.textInput.EchoMode != textinput.EchoPassword {
		t.Error("Password input should be in EchoPassword mode")
	}
}

func TestPasswordShapeRejected(t *testing.T) {
	m := newTestModel(t)
	advanceToPassword(t, m)

	typeString(m, "too-short")
	cmd := pressEnter(m)
	deliver(t, m, cmd)

	if m.state != SetupStatePassword {
		t.Errorf("Bad password shape should keep state at SetupStatePassword, got %v", m.state)
	}
	if m.layout.GetError() == nil {
		t.Error("Expected a shape validation error")
	}
}

func TestVerificationSuccessAdvancesToConfirm(t *testing.T) {
	m := newTestModel(t)

	var gotSite, gotUser, gotPass string
	m.SetVerifier(func(_ context.Context, siteURL, username, password string) error {
		gotSite, gotUser, gotPass = siteURL, username, password
		return nil
	})

	advanceToPassword(t, m)
	typeString(m, credentials.TestPassword())
	cmd := pressEnter(m)

	if m.state != SetupStateVerify {
		t.Fatalf("Expected SetupStateVerify while checking, got %v", m.state)
	}

	deliver(t, m, cmd)

	if m.state != SetupStateConfirm {
		t.Errorf("Expected SetupStateConfirm, got %v", m.state)
	}
	if gotSite != "https://example.com" || gotUser != "editor" || gotPass != credentials.TestPassword() {
		t.Errorf("Verifier got (%q, %q, %q)", gotSite, gotUser, gotPass)
	}
}

func TestVerificationFailureReturnsToPassword(t *testing.T) {
	m := newTestModel(t)
	m.SetVerifier(func(context.Context, string, string, string) error {
		return errors.New("wordpress returned HTTP 401: invalid credentials")
	})

	advanceToPassword(t, m)
	typeString(m, credentials.TestPassword())
	cmd := pressEnter(m)
	deliver(t, m, cmd)

	if m.state != SetupStatePassword {
		t.Errorf("Expected SetupStatePassword after failed verification, got %v", m.state)
	}
	err := m.layout.GetError()
	if err == nil || !strings.Contains(err.Error(), "verification failed") {
		t.Errorf("Expected verification error to be shown, got %v", err)
	}
}

func TestConfirmRejectReturnsToFirstInput(t *testing.T) {
	m := newTestModel(t)
	m.SetVerifier(func(context.Context, string, string, string) error { return nil })

	advanceToPassword(t, m)
	typeString(m, credentials.TestPassword())
	deliver(t, m, pressEnter(m))

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})

	if m.state != SetupStateSiteURL {
		t.Errorf("Expected SetupStateSiteURL after rejecting, got %v", m.state)
	}
	if m.textInput.Value() != "https://example.com" {
		t.Errorf("Site URL should be preserved for editing, got %q", m.textInput.Value())
	}
}

func TestConfirmAcceptSavesConfig(t *testing.T) {
	configPath := SetTestConfigPath(t)

	m := newTestModel(t)
	m.SetVerifier(func(context.Context, string, string, string) error { return nil })
	m.SetCredentialManager(credentials.NewTestManager(t).Manager)

	advanceToPassword(t, m)
	typeString(m, credentials.TestPassword())
	deliver(t, m, pressEnter(m))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	deliver(t, m, cmd)

	if m.state != SetupStateComplete {
		t.Fatalf("Expected SetupStateComplete, got %v", m.state)
	}
	if !m.Completed {
		t.Error("Completed flag should be set")
	}
	if !FileExists(configPath) {
		t.Fatal("Config file should have been written")
	}

	fc, err := config.LoadFileFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	if fc.SiteURL != "https://example.com" {
		t.Errorf("Saved site_url = %q", fc.SiteURL)
	}
	if fc.Username != "editor" {
		t.Errorf("Saved username = %q", fc.Username)
	}
}

func TestCompleteViewMentionsFallbackWhenKeyringFails(t *testing.T) {
	m := newTestModel(t)
	m.state = SetupStateComplete
	m.SiteURL = "https://example.com"
	m.Username = "editor"
	m.keyringFallback = true

	view := m.View()
	if !strings.Contains(view, "WORDPRESS_PASSWORD") {
		t.Error("Complete view should explain the WORDPRESS_PASSWORD fallback")
	}
}

func TestAnyKeyExitsFinalStates(t *testing.T) {
	for _, state := range []SetupState{SetupStateComplete, SetupStateCancelled} {
		m := newTestModel(t)
		m.state = state

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
		if cmd == nil {
			t.Errorf("State %v should quit on any key", state)
		}
	}
}
