package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wpmcp/internal/credentials"
	"wpmcp/internal/logging"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "wpmcp" // application name used for config/state/data directories

// Environment variables read at startup. The three WORDPRESS_* values are
// the primary configuration source; the WPMCP_* values are optional knobs.
const (
	EnvSiteURL  = "WORDPRESS_URL"
	EnvUsername = "WORDPRESS_USERNAME"
	EnvPassword = "WORDPRESS_PASSWORD"

	// EnvConfigPath overrides the config file location (used by tests)
	EnvConfigPath = "WPMCP_CONFIG_PATH"
	// EnvRequestTimeout overrides the per-request timeout, e.g. "10s"
	EnvRequestTimeout = "WPMCP_REQUEST_TIMEOUT"
	// EnvTemplateDir overrides the prompt template directory
	EnvTemplateDir = "WPMCP_TEMPLATE_DIR"
)

// DefaultRequestTimeout bounds each WordPress round trip unless overridden.
const DefaultRequestTimeout = 30 * time.Second

// Version of the config file schema.
const configVersion = "1.0"

// Labels for where the application password was resolved from.
const (
	SourceEnvironment = "environment"
	SourceKeyring     = "keyring"
)

// ConfigurationError reports a required value that is missing or malformed
// at startup. It is fatal: the server refuses to register any tool.
type ConfigurationError struct {
	Name   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Name, e.Reason)
}

// Config is the resolved runtime configuration. It is immutable after Load
// and safely shared across concurrent tool invocations.
type Config struct {
	SiteURL        string
	Username       string
	AppPassword    string
	PasswordSource string
	RequestTimeout time.Duration
	TemplateDir    string
}

// FileConfig mirrors the yaml schema of config.yaml, written by the setup
// wizard. It never carries the application password; that lives in the OS
// keyring or the environment.
type FileConfig struct {
	SiteURL        string `yaml:"site_url"`
	Username       string `yaml:"username"`
	RequestTimeout string `yaml:"request_timeout,omitempty"`
	TemplateDir    string `yaml:"template_dir,omitempty"`
	Version        string `yaml:"version"`   // Track config version
	InitTime       int64  `yaml:"init_time"` // Unix timestamp of first setup
}

// DefaultFileConfig returns a FileConfig with the current schema version.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Version:  configVersion,
		InitTime: 0, // Will be set during first save
	}
}

// Load resolves the runtime configuration. Precedence per value: the
// environment (after a best-effort .env load), then the config file for
// site URL and username, then the OS keyring for the application password.
// Any required value still missing afterwards is a ConfigurationError.
// Load performs no network calls.
func Load() (*Config, error) {
	// Existing environment variables win over .env entries.
	if err := godotenv.Load(); err == nil {
		logging.Debug("Loaded environment from .env file")
	}

	var fc FileConfig
	if path, exists := FindConfigFile(); exists {
		loaded, err := LoadFileFrom(path)
		if err != nil {
			return nil, &ConfigurationError{Name: path, Reason: err.Error()}
		}
		fc = *loaded
	}

	rawSiteURL := firstNonEmpty(os.Getenv(EnvSiteURL), fc.SiteURL)
	if rawSiteURL == "" {
		return nil, &ConfigurationError{Name: EnvSiteURL, Reason: "is not set"}
	}
	siteURL, err := NormalizeSiteURL(rawSiteURL)
	if err != nil {
		return nil, &ConfigurationError{Name: EnvSiteURL, Reason: err.Error()}
	}

	username := firstNonEmpty(os.Getenv(EnvUsername), fc.Username)
	if username == "" {
		return nil, &ConfigurationError{Name: EnvUsername, Reason: "is not set"}
	}

	password := os.Getenv(EnvPassword)
	passwordSource := SourceEnvironment
	if password == "" {
		stored, found, err := credentials.NewManager().ApplicationPassword()
		if err != nil {
			logging.Warn("Credential store unavailable", "error", err)
		}
		if found {
			password = stored
			passwordSource = SourceKeyring
		}
	}
	if password == "" {
		return nil, &ConfigurationError{
			Name:   EnvPassword,
			Reason: "is not set and no application password is stored (run wpmcp setup)",
		}
	}

	timeout := DefaultRequestTimeout
	if raw := firstNonEmpty(os.Getenv(EnvRequestTimeout), fc.RequestTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, &ConfigurationError{
				Name:   EnvRequestTimeout,
				Reason: fmt.Sprintf("%q is not a valid duration", raw),
			}
		}
		timeout = d
	}

	templateDir := firstNonEmpty(os.Getenv(EnvTemplateDir), fc.TemplateDir)
	if templateDir == "" {
		templateDir = DefaultTemplateDir()
	}

	cfg := &Config{
		SiteURL:        siteURL,
		Username:       username,
		AppPassword:    password,
		PasswordSource: passwordSource,
		RequestTimeout: timeout,
		TemplateDir:    templateDir,
	}

	logging.Debug("Configuration resolved",
		"site", cfg.SiteURL,
		"user", cfg.Username,
		"password_source", cfg.PasswordSource,
		"timeout", cfg.RequestTimeout,
	)
	return cfg, nil
}

// NormalizeSiteURL validates and canonicalizes the site base URL: a scheme
// and host are required, trailing slashes are trimmed. Subdirectory installs
// (example.com/blog) are allowed.
func NormalizeSiteURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid URL", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("must start with http:// or https://")
	}
	if u.Host == "" {
		return "", fmt.Errorf("is missing a host")
	}

	return strings.TrimRight(trimmed, "/"), nil
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// FindConfigFile returns the path to the config file, and whether it exists.
// The WPMCP_CONFIG_PATH override takes priority over the standard location.
func FindConfigFile() (string, bool) {
	if override := os.Getenv(EnvConfigPath); override != "" {
		_, err := os.Stat(override)
		return override, err == nil
	}

	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// IsFirstRun reports whether nothing points at a WordPress site yet: no
// config file and no WORDPRESS_URL in the environment.
func IsFirstRun() bool {
	if os.Getenv(EnvSiteURL) != "" {
		return false
	}
	_, exists := FindConfigFile()
	return !exists
}

// DefaultTemplateDir is where user prompt templates live.
func DefaultTemplateDir() string {
	return filepath.Join(xdg.DataHome, APP_NAME, "templates")
}

// PackCacheDir is where synced template pack repositories are cached.
func PackCacheDir() string {
	return filepath.Join(xdg.DataHome, APP_NAME, "packs")
}

// LoadFileFrom loads a FileConfig from a specific path
func LoadFileFrom(path string) (*FileConfig, error) {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var fc FileConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &fc, nil
}

// Save writes the config to the standard location (or the override path)
func (fc *FileConfig) Save() error {
	configPath, _ := FindConfigFile()
	return fc.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (fc *FileConfig) SaveTo(path string) error {
	// Set init time if this is the first save
	if fc.InitTime == 0 {
		fc.InitTime = time.Now().Unix()
	}
	if fc.Version == "" {
		fc.Version = configVersion
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) for security
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
