// Package setupmenu implements the first-run setup wizard for wpmcp.
//
// The wizard walks through the WordPress connection settings, checks them
// against the live site, and persists them:
//   - Welcome: overview of what will be collected
//   - Site URL input
//   - Username input
//   - Application-password input (password-masked)
//   - Verify: asynchronous credential check against the site
//   - Confirmation: review and confirm
//   - Complete/Cancelled: final state
//
// The site URL and username land in the yaml config file; the application
// password goes to the OS keyring. When the keyring is unavailable the
// wizard still completes and tells the user to export WORDPRESS_PASSWORD
// instead.
package setupmenu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wpmcp/internal/config"
	"wpmcp/internal/credentials"
	"wpmcp/internal/logging"
	"wpmcp/internal/tui/components"
	"wpmcp/internal/tui/helpers"
	"wpmcp/internal/tui/styles"
	"wpmcp/internal/wordpress"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SetupState represents the current state of the setup process
type SetupState int

const (
	SetupStateWelcome   SetupState = iota // Initial welcome screen
	SetupStateSiteURL                     // WordPress site URL input
	SetupStateUsername                    // WordPress username input
	SetupStatePassword                    // Application password input (password-masked)
	SetupStateVerify                      // Credential check against the live site
	SetupStateConfirm                     // Review and confirm configuration
	SetupStateComplete                    // Setup successfully completed
	SetupStateCancelled                   // Setup was cancelled by user
)

const verifyTimeout = 15 * time.Second

// Verifier checks a set of site credentials against the live site. The
// default talks to the WordPress REST API; tests inject their own.
type Verifier func(ctx context.Context, siteURL, username, password string) error

// Custom messages for internal state transitions
type (
	setupErrorMsg   struct{ err error }
	verifyResultMsg struct{ err error }
	setupSavedMsg   struct{ keyringErr error }
)

// SetupModel manages the setup wizard state and user interactions. Pointer
// receivers throughout so state changes survive the event loop.
type SetupModel struct {
	state SetupState

	// Collected connection settings. The password stays in memory until
	// final confirmation and is never written to the config file.
	SiteURL  string
	Username string
	password string

	// Flow control
	Cancelled bool // True if user cancelled setup
	Completed bool // True once the configuration has been saved

	// True when the keyring rejected the password at save time and the
	// user must export WORDPRESS_PASSWORD instead.
	keyringFallback bool

	logger *logging.AppLogger

	verify Verifier
	creds  *credentials.Manager

	// UI components
	textInput textinput.Model        // Reused text input for all input screens
	layout    components.LayoutModel // Centralized layout and styling
}

// NewSetupModel creates a setup wizard model with initial state and UI
// components sized from the provided context dimensions.
func NewSetupModel(ctx helpers.UIContext) *SetupModel {
	ti := textinput.New()
	ti.Placeholder = "https://example.com"
	ti.Focus()
	ti.CharLimit = 256

	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})

	if ctx.HasValidDimensions() {
		windowMsg := tea.WindowSizeMsg{Width: ctx.Width, Height: ctx.Height}
		layout, _ = layout.Update(windowMsg)
		ti.Width = layout.InputWidth()
	}

	return &SetupModel{
		state:     SetupStateWelcome,
		textInput: ti,
		layout:    layout,
		logger:    ctx.Logger,
		verify:    liveVerifier,
		creds:     credentials.NewManager(),
	}
}

// SetVerifier replaces the live credential check. Tests point it at an
// httptest server or a stub.
func (m *SetupModel) SetVerifier(v Verifier) {
	m.verify = v
}

// SetCredentialManager replaces the keyring-backed credential manager.
func (m *SetupModel) SetCredentialManager(creds *credentials.Manager) {
	m.creds = creds
}

// liveVerifier authenticates against the real site with a bounded timeout.
func liveVerifier(ctx context.Context, siteURL, username, password string) error {
	client := wordpress.NewClient(wordpress.Config{
		SiteURL:     siteURL,
		Username:    username,
		AppPassword: password,
	}, logging.GetDefault())

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	return client.VerifyAuth(ctx)
}

// Init starts the text input cursor blinking.
func (m *SetupModel) Init() tea.Cmd {
	m.logger.Info("Setup model initialized")
	return textinput.Blink
}

// Update handles all incoming messages and delegates to the state handlers.
func (m *SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.logger.LogMessage(msg)

	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.textInput.Width = m.layout.InputWidth()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case setupErrorMsg:
		m.layout = m.layout.SetError(msg.err)
		return m, nil

	case verifyResultMsg:
		return m.handleVerifyResult(msg)

	case setupSavedMsg:
		m.logger.LogStateTransition("SetupModel", "SetupStateConfirm", "SetupStateComplete")
		m.state = SetupStateComplete
		m.Completed = true
		m.keyringFallback = msg.keyringErr != nil
		m.layout = m.layout.ClearError()
		return m, nil
	}

	return m, nil
}

// updateTextInput feeds a message to the text input and clears any
// displayed error once the user starts typing again.
func (m *SetupModel) updateTextInput(msg tea.Msg) (*SetupModel, tea.Cmd) {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	if m.layout.GetError() != nil {
		m.layout = m.layout.ClearError()
	}
	return m, cmd
}

// handleKeyPress routes key presses to the handler for the current state.
// Ctrl+C cancels everywhere; Esc and q are state-specific since inputs
// legitimately contain both characters.
func (m *SetupModel) handleKeyPress(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	// Final states exit on any key.
	if m.state == SetupStateComplete || m.state == SetupStateCancelled {
		return m, tea.Quit
	}

	if msg.String() == "ctrl+c" {
		return m.handleQuit()
	}

	switch m.state {
	case SetupStateWelcome:
		return m.handleWelcomeKeys(msg)
	case SetupStateSiteURL:
		return m.handleSiteURLKeys(msg)
	case SetupStateUsername:
		return m.handleUsernameKeys(msg)
	case SetupStatePassword:
		return m.handlePasswordKeys(msg)
	case SetupStateVerify:
		// Verification is in flight; only ctrl+c interrupts.
		return m, nil
	case SetupStateConfirm:
		return m.handleConfirmKeys(msg)
	default:
		return m, tea.Quit
	}
}

// handleWelcomeKeys handles input on the welcome screen.
// Enter/Space: proceed to the site URL input
// Esc/q: quit setup
func (m *SetupModel) handleWelcomeKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter", " ":
		return m, m.resetTextInputForState(SetupStateSiteURL, m.SiteURL, "https://example.com", textinput.EchoNormal)
	case "esc", "q":
		return m.handleQuit()
	}
	return m, nil
}

// handleSiteURLKeys handles input on the site URL screen.
// Enter: validate and normalize the URL, then proceed to username
// Esc: go back to the welcome screen
func (m *SetupModel) handleSiteURLKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := strings.TrimSpace(m.textInput.Value())
		m.logger.LogUserAction("site_url_submit", input)

		normalized, err := config.NormalizeSiteURL(input)
		if err != nil {
			m.logger.Warn("Site URL validation failed", "error", err)
			return m, func() tea.Msg { return setupErrorMsg{err} }
		}

		m.SiteURL = normalized
		m.logger.LogStateTransition("SetupModel", "SetupStateSiteURL", "SetupStateUsername")
		return m, m.resetTextInputForState(SetupStateUsername, m.Username, "admin", textinput.EchoNormal)

	case "esc":
		m.state = SetupStateWelcome
		m.layout = m.layout.ClearError()
		return m, nil
	default:
		return m.updateTextInput(msg)
	}
}

// handleUsernameKeys handles input on the username screen.
// Enter: require a non-empty username, then proceed to the password
// Esc: go back to the site URL input
func (m *SetupModel) handleUsernameKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := strings.TrimSpace(m.textInput.Value())
		m.logger.LogUserAction("username_submit", input)

		if input == "" {
			return m, func() tea.Msg { return setupErrorMsg{fmt.Errorf("username cannot be empty")} }
		}

		m.Username = input
		m.logger.LogStateTransition("SetupModel", "SetupStateUsername", "SetupStatePassword")
		return m, m.resetTextInputForState(SetupStatePassword, "", "xxxx xxxx xxxx xxxx xxxx xxxx", textinput.EchoPassword)

	case "esc":
		return m, m.resetTextInputForState(SetupStateSiteURL, m.SiteURL, "https://example.com", textinput.EchoNormal)
	default:
		return m.updateTextInput(msg)
	}
}

// handlePasswordKeys handles input on the application password screen.
// Enter: check the password shape, then kick off live verification
// Esc: go back to the username input
func (m *SetupModel) handlePasswordKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.logger.LogUserAction("password_submit", "[REDACTED]")

		input := strings.TrimSpace(m.textInput.Value())
		if input == "" {
			return m, func() tea.Msg { return setupErrorMsg{fmt.Errorf("application password cannot be empty")} }
		}

		if err := credentials.ValidateApplicationPassword(input); err != nil {
			m.logger.Warn("Application password shape check failed", "error", err)
			return m, func() tea.Msg { return setupErrorMsg{err} }
		}

		m.password = input
		m.logger.LogStateTransition("SetupModel", "SetupStatePassword", "SetupStateVerify")
		m.state = SetupStateVerify
		m.layout = m.layout.ClearError()
		return m, m.verifyCredentials()

	case "esc":
		return m, m.resetTextInputForState(SetupStateUsername, m.Username, "admin", textinput.EchoNormal)
	default:
		return m.updateTextInput(msg)
	}
}

// handleConfirmKeys handles input on the confirmation screen.
// y/Y/Enter: save the configuration
// n/N/Esc: go back to the first input to edit
// q: cancel setup
func (m *SetupModel) handleConfirmKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.logger.LogUserAction("confirmation_accept", "saving config")
		return m, m.saveConfig()
	case "n", "N", "esc":
		m.logger.LogUserAction("confirmation_reject", "going back")
		return m, m.resetTextInputForState(SetupStateSiteURL, m.SiteURL, "https://example.com", textinput.EchoNormal)
	case "q":
		return m.handleQuit()
	}
	return m, nil
}

// verifyCredentials returns a command that checks the collected credentials
// against the live site without blocking the UI.
func (m *SetupModel) verifyCredentials() tea.Cmd {
	siteURL, username, password := m.SiteURL, m.Username, m.password
	verify := m.verify
	return func() tea.Msg {
		return verifyResultMsg{err: verify(context.Background(), siteURL, username, password)}
	}
}

// handleVerifyResult moves to confirmation on success, or back to the
// password input with the error shown so the user can edit and retry.
func (m *SetupModel) handleVerifyResult(msg verifyResultMsg) (*SetupModel, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("Credential verification failed", "error", msg.err)
		cmd := m.resetTextInputForState(SetupStatePassword, "", "xxxx xxxx xxxx xxxx xxxx xxxx", textinput.EchoPassword)
		m.layout = m.layout.SetError(fmt.Errorf("verification failed: %v", msg.err))
		return m, cmd
	}

	m.logger.LogStateTransition("SetupModel", "SetupStateVerify", "SetupStateConfirm")
	m.state = SetupStateConfirm
	m.layout = m.layout.ClearError()
	return m, nil
}

// saveConfig returns a command that persists the configuration: site URL
// and username to the yaml file, password to the OS keyring. A keyring
// failure does not fail the save; the completion screen explains the
// WORDPRESS_PASSWORD fallback instead.
func (m *SetupModel) saveConfig() tea.Cmd {
	return func() tea.Msg {
		m.logger.Info("Saving configuration", "site", m.SiteURL, "user", m.Username)

		fc := config.FileConfig{
			SiteURL:  m.SiteURL,
			Username: m.Username,
		}
		if err := fc.Save(); err != nil {
			m.logger.Error("Config save failed", "error", err)
			return setupErrorMsg{fmt.Errorf("failed to save configuration: %w", err)}
		}

		var keyringErr error
		if err := m.creds.StoreApplicationPassword(m.password); err != nil {
			m.logger.Warn("Keyring unavailable, password not stored", "error", err)
			keyringErr = err
		}

		m.logger.Info("Configuration saved")
		return setupSavedMsg{keyringErr: keyringErr}
	}
}

// handleQuit marks the setup as cancelled and stops the program.
func (m *SetupModel) handleQuit() (*SetupModel, tea.Cmd) {
	m.logger.Warn("Setup cancelled by user")
	m.Cancelled = true
	m.state = SetupStateCancelled
	return m, nil
}

// View renders the screen for the current setup state.
func (m *SetupModel) View() string {
	switch m.state {
	case SetupStateWelcome:
		return m.viewWelcome()
	case SetupStateSiteURL:
		return m.viewSiteURL()
	case SetupStateUsername:
		return m.viewUsername()
	case SetupStatePassword:
		return m.viewPassword()
	case SetupStateVerify:
		return m.viewVerify()
	case SetupStateConfirm:
		return m.viewConfirm()
	case SetupStateComplete:
		return m.viewComplete()
	case SetupStateCancelled:
		return m.viewCancelled()
	}
	return ""
}

func (m *SetupModel) viewWelcome() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔧 Welcome to wpmcp!",
		Subtitle: "Let's connect to your WordPress site.",
		HelpText: "Press Enter to continue, or Esc to cancel",
	})

	content := `This is your first time running wpmcp. We need a few details to connect MCP clients to your WordPress site.

We'll collect:
• The site URL (e.g. https://example.com)
• Your WordPress username
• An application password for that user

Application passwords are created in your WordPress profile under Users → Profile → Application Passwords. The password is stored in your OS keyring, never in a plain-text file.`

	return m.layout.Render(content)
}

func (m *SetupModel) viewSiteURL() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🌐 Site URL",
		Subtitle: "Which WordPress site should wpmcp manage?",
		HelpText: "Press Enter to continue • Esc to go back",
	})

	explanation := `Enter the base URL of the WordPress site, including the scheme. Subdirectory installs work too.

Examples:
• https://example.com
• https://example.com/blog`

	prompt := "Site URL:"
	input := styles.InputStyle.Render(m.textInput.View())

	content := fmt.Sprintf("%s\n\n%s\n%s", explanation, prompt, input)

	return m.layout.Render(content)
}

func (m *SetupModel) viewUsername() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "👤 Username",
		Subtitle: "Which WordPress user should wpmcp act as?",
		HelpText: "Press Enter to continue • Esc to go back",
	})

	explanation := `Posts are created and deleted as this user, so it needs a role that can publish and delete posts (Author or above for its own posts, Editor for all posts).`

	prompt := "Username:"
	input := styles.InputStyle.Render(m.textInput.View())

	content := fmt.Sprintf("%s\n\n%s\n%s", explanation, prompt, input)

	return m.layout.Render(content)
}

// viewPassword renders the application password screen. The input is in
// EchoPassword mode, so the value is displayed as asterisks.
func (m *SetupModel) viewPassword() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔑 Application Password",
		Subtitle: "Enter an application password for this user",
		HelpText: "Press Enter to verify • Esc to go back",
	})

	explanation := `An application password lets wpmcp authenticate without your main account password, and can be revoked at any time.

🔒 It will be stored in your OS keyring (Keychain/Credential Manager), never in a plain-text file.

Create one at: wp-admin → Users → Profile → Application Passwords
Format: 24 characters in spaced groups of four (pasting without spaces is fine)`

	prompt := "Application password:"
	input := styles.InputStyle.Render(m.textInput.View())

	content := fmt.Sprintf("%s\n\n%s\n%s", explanation, prompt, input)

	return m.layout.Render(content)
}

func (m *SetupModel) viewVerify() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔎 Verifying",
		Subtitle: "Checking the credentials against your site…",
		HelpText: "Ctrl+C to cancel",
	})

	content := fmt.Sprintf(`Authenticating as %s against %s.

This talks to the site's REST API and usually takes a moment.`, m.Username, m.SiteURL)

	return m.layout.Render(content)
}

func (m *SetupModel) viewConfirm() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "✅ Confirm Configuration",
		Subtitle: "Credentials verified. Please review your settings:",
		HelpText: "Press y to confirm • n to edit • q to cancel",
	})

	settings := fmt.Sprintf(`Site URL: %s
Username: %s
Application Password: [verified, will be stored in OS keyring]`, m.SiteURL, m.Username)

	prompt := "Is this correct? (Y/n)"
	content := fmt.Sprintf("%s\n\n%s", settings, prompt)

	return m.layout.Render(content)
}

func (m *SetupModel) viewComplete() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🎉 Setup Complete!",
		Subtitle: "wpmcp is connected to your site.",
		HelpText: "Press any key to exit",
	})

	content := fmt.Sprintf(`Configuration saved successfully!

Site URL: %s
Username: %s

Point your MCP client at 'wpmcp serve' to start managing posts.`, m.SiteURL, m.Username)

	if m.keyringFallback {
		content += `

⚠ The OS keyring was not available, so the application password was NOT stored.
Export it in the environment where wpmcp runs instead:

  export WORDPRESS_PASSWORD="xxxx xxxx xxxx xxxx xxxx xxxx"`
	} else {
		content += "\n\n🔒 The application password has been stored in your OS keyring."
	}

	return m.layout.Render(content)
}

func (m *SetupModel) viewCancelled() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "❌ Setup Cancelled",
		Subtitle: "wpmcp will not be configured.",
		HelpText: "Press any key to exit",
	})

	content := `Setup was cancelled. wpmcp has not been configured; run 'wpmcp setup' again, or set WORDPRESS_URL, WORDPRESS_USERNAME and WORDPRESS_PASSWORD in the environment.`

	return m.layout.Render(content)
}

// resetTextInputForState resets the text input and transitions to a new
// state, returning the blink command for the cursor.
func (m *SetupModel) resetTextInputForState(state SetupState, value, placeholder string, echoMode textinput.EchoMode) tea.Cmd {
	m.state = state
	m.textInput.Reset()
	m.textInput.SetValue(value)
	m.textInput.Placeholder = placeholder
	m.textInput.EchoMode = echoMode
	m.textInput.Focus()
	m.layout = m.layout.ClearError()
	return textinput.Blink
}
