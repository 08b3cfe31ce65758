// Package credentials stores the WordPress application password (and the
// optional template-pack token) in the OS credential store, so secrets never
// have to live in config files. The environment always wins over the store;
// this is the fallback written by the setup wizard.
package credentials

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for the OS credential store
	credentialService = "wpmcp"
	// Key for the WordPress application password
	appPasswordKey = "application_password"
	// Key for the git token used when syncing private template packs
	packTokenKey = "pack_token"
)

// Manager handles secure storage and retrieval of credentials.
type Manager struct {
	service string
}

// NewManager creates a new credential manager instance.
func NewManager() *Manager {
	return &Manager{
		service: credentialService,
	}
}

// StoreApplicationPassword validates and stores a WordPress application
// password in the OS credential store.
func (m *Manager) StoreApplicationPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("application password cannot be empty")
	}

	if err := ValidateApplicationPassword(password); err != nil {
		return fmt.Errorf("invalid application password: %w", err)
	}

	if err := keyring.Set(m.service, appPasswordKey, password); err != nil {
		return fmt.Errorf("failed to store application password in credential store: %w", err)
	}

	return nil
}

// ApplicationPassword retrieves the stored application password. The second
// return value is false when no password is stored; err reports storage
// failures only, never absence.
func (m *Manager) ApplicationPassword() (string, bool, error) {
	password, err := keyring.Get(m.service, appPasswordKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read credential store: %w", err)
	}

	if strings.TrimSpace(password) == "" {
		return "", false, nil
	}

	return password, true, nil
}

// DeleteApplicationPassword removes the stored application password.
// Deleting an absent entry is not an error.
func (m *Manager) DeleteApplicationPassword() error {
	err := keyring.Delete(m.service, appPasswordKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete application password from credential store: %w", err)
	}
	return nil
}

// HasApplicationPassword checks if an application password is stored without
// retrieving it.
func (m *Manager) HasApplicationPassword() bool {
	_, found, err := m.ApplicationPassword()
	return err == nil && found
}

// StorePackToken stores the git token used for syncing private template packs.
func (m *Manager) StorePackToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if len(strings.TrimSpace(token)) < 8 {
		return fmt.Errorf("token too short")
	}

	if err := keyring.Set(m.service, packTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// PackToken retrieves the stored template-pack token, if any.
func (m *Manager) PackToken() (string, bool, error) {
	token, err := keyring.Get(m.service, packTokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read credential store: %w", err)
	}
	return token, token != "", nil
}

// DeletePackToken removes the stored template-pack token.
func (m *Manager) DeletePackToken() error {
	err := keyring.Delete(m.service, packTokenKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// StoreAvailable probes the OS credential store with a throwaway entry.
// A nil return means the store can be used; the setup wizard falls back to
// environment-variable instructions otherwise.
func (m *Manager) StoreAvailable() error {
	probeKey := "wpmcp_probe"
	probeValue := "probe_value"

	if err := keyring.Set(m.service, probeKey, probeValue); err != nil {
		return fmt.Errorf("credential store unavailable: %w", err)
	}

	got, err := keyring.Get(m.service, probeKey)
	if err != nil {
		keyring.Delete(m.service, probeKey)
		return fmt.Errorf("credential store unavailable: %w", err)
	}
	if got != probeValue {
		keyring.Delete(m.service, probeKey)
		return fmt.Errorf("credential store returned a corrupted value")
	}

	if err := keyring.Delete(m.service, probeKey); err != nil {
		return fmt.Errorf("credential store cleanup failed: %w", err)
	}
	return nil
}

// ValidateApplicationPassword checks the shape of a WordPress application
// password: 24 alphanumeric characters, displayed by WordPress in groups of
// four separated by spaces. Both the spaced and the stripped form are
// accepted, since the API treats them identically.
func ValidateApplicationPassword(password string) error {
	stripped := strings.ReplaceAll(strings.TrimSpace(password), " ", "")

	if len(stripped) != 24 {
		return fmt.Errorf("expected 24 characters (in groups of four), got %d", len(stripped))
	}

	for _, r := range stripped {
		isDigit := r >= '0' && r <= '9'
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		if !isDigit && !isLower && !isUpper {
			return fmt.Errorf("contains %q; application passwords are alphanumeric", r)
		}
	}

	return nil
}
