package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wpmcp/internal/credentials"

	"github.com/zalando/go-keyring"
)

// clearEnv unsets the given variables for the duration of the test,
// restoring any original values afterwards. t.Setenv with an empty string
// is not enough: godotenv and LookupEnv both treat a set-but-empty
// variable as present.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if original, had := os.LookupEnv(key); had {
			key, original := key, original
			t.Cleanup(func() { os.Setenv(key, original) })
			os.Unsetenv(key)
		}
	}
}

// isolate gives the test a pristine environment: no WORDPRESS_*/WPMCP_*
// variables, an empty working directory (so no stray .env is picked up), an
// in-memory keyring and a config path pointing into the temp dir.
func isolate(t *testing.T) string {
	t.Helper()

	clearEnv(t,
		EnvSiteURL, EnvUsername, EnvPassword,
		EnvConfigPath, EnvRequestTimeout, EnvTemplateDir,
	)
	t.Chdir(t.TempDir())
	keyring.MockInit()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, configPath)
	return configPath
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv(EnvSiteURL, "https://example.com/")
	t.Setenv(EnvUsername, "editor")
	t.Setenv(EnvPassword, credentials.TestPassword())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SiteURL != "https://example.com" {
		t.Errorf("SiteURL = %q, want trailing slash trimmed", cfg.SiteURL)
	}
	if cfg.Username != "editor" {
		t.Errorf("Username = %q", cfg.Username)
	}
	if cfg.AppPassword != credentials.TestPassword() {
		t.Error("AppPassword should come from the environment")
	}
	if cfg.PasswordSource != SourceEnvironment {
		t.Errorf("PasswordSource = %q, want %q", cfg.PasswordSource, SourceEnvironment)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want default %v", cfg.RequestTimeout, DefaultRequestTimeout)
	}
	if cfg.TemplateDir == "" {
		t.Error("TemplateDir should fall back to the default directory")
	}
}

func TestLoadMissingValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantVar string
	}{
		{
			name:    "everything missing",
			env:     map[string]string{},
			wantVar: EnvSiteURL,
		},
		{
			name:    "username missing",
			env:     map[string]string{EnvSiteURL: "https://example.com"},
			wantVar: EnvUsername,
		},
		{
			name: "password missing",
			env: map[string]string{
				EnvSiteURL:  "https://example.com",
				EnvUsername: "editor",
			},
			wantVar: EnvPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigurationError, got %v", err)
			}
			if cfgErr.Name != tt.wantVar {
				t.Errorf("Error names %q, want %q", cfgErr.Name, tt.wantVar)
			}
		})
	}
}

func TestLoadMalformedSiteURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvSiteURL, "example.com") // no scheme
	t.Setenv(EnvUsername, "editor")
	t.Setenv(EnvPassword, credentials.TestPassword())

	_, err := Load()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
	if cfgErr.Name != EnvSiteURL {
		t.Errorf("Error names %q, want %q", cfgErr.Name, EnvSiteURL)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	isolate(t)

	envFile := "WORDPRESS_URL=https://dotenv.example.com\n" +
		"WORDPRESS_USERNAME=dotenv-user\n" +
		"WORDPRESS_PASSWORD=" + credentials.TestPassword() + "\n"
	if err := os.WriteFile(".env", []byte(envFile), 0o600); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SiteURL != "https://dotenv.example.com" {
		t.Errorf("SiteURL = %q, want the .env value", cfg.SiteURL)
	}
	if cfg.Username != "dotenv-user" {
		t.Errorf("Username = %q, want the .env value", cfg.Username)
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv(EnvSiteURL, "https://real.example.com")
	t.Setenv(EnvUsername, "editor")
	t.Setenv(EnvPassword, credentials.TestPassword())

	if err := os.WriteFile(".env", []byte("WORDPRESS_URL=https://dotenv.example.com\n"), 0o600); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SiteURL != "https://real.example.com" {
		t.Errorf("SiteURL = %q; the process environment must win over .env", cfg.SiteURL)
	}
}

func TestLoadFileSuppliesSiteAndUsername(t *testing.T) {
	configPath := isolate(t)

	fc := FileConfig{SiteURL: "https://file.example.com", Username: "file-user"}
	if err := fc.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config file: %v", err)
	}

	t.Setenv(EnvPassword, credentials.TestPassword())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SiteURL != "https://file.example.com" {
		t.Errorf("SiteURL = %q, want the file value", cfg.SiteURL)
	}
	if cfg.Username != "file-user" {
		t.Errorf("Username = %q, want the file value", cfg.Username)
	}
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	configPath := isolate(t)

	fc := FileConfig{SiteURL: "https://file.example.com", Username: "file-user"}
	if err := fc.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config file: %v", err)
	}

	t.Setenv(EnvSiteURL, "https://env.example.com")
	t.Setenv(EnvPassword, credentials.TestPassword())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SiteURL != "https://env.example.com" {
		t.Errorf("SiteURL = %q; environment must win over the config file", cfg.SiteURL)
	}
	if cfg.Username != "file-user" {
		t.Errorf("Username = %q; the file should still fill unset values", cfg.Username)
	}
}

func TestLoadPasswordFromKeyring(t *testing.T) {
	configPath := isolate(t)

	fc := FileConfig{SiteURL: "https://example.com", Username: "editor"}
	if err := fc.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config file: %v", err)
	}

	// The mock keyring is process-global, so this lands where Load looks.
	if err := credentials.NewManager().StoreApplicationPassword(credentials.TestPassword()); err != nil {
		t.Fatalf("Failed to store password in mock keyring: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AppPassword != credentials.TestPassword() {
		t.Error("AppPassword should come from the keyring")
	}
	if cfg.PasswordSource != SourceKeyring {
		t.Errorf("PasswordSource = %q, want %q", cfg.PasswordSource, SourceKeyring)
	}
}

func TestLoadRequestTimeout(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"override", "10s", 10 * time.Second, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"not a duration", "banana", 0, true},
		{"negative", "-5s", 0, true},
		{"zero", "0s", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(EnvSiteURL, "https://example.com")
			t.Setenv(EnvUsername, "editor")
			t.Setenv(EnvPassword, credentials.TestPassword())
			t.Setenv(EnvRequestTimeout, tt.value)

			cfg, err := Load()
			if tt.wantErr {
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("Expected ConfigurationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.RequestTimeout != tt.want {
				t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, tt.want)
			}
		})
	}
}

func TestNormalizeSiteURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain https", "https://example.com", "https://example.com", false},
		{"trailing slash", "https://example.com/", "https://example.com", false},
		{"many trailing slashes", "https://example.com///", "https://example.com", false},
		{"subdirectory install", "https://example.com/blog/", "https://example.com/blog", false},
		{"http allowed", "http://localhost:8080", "http://localhost:8080", false},
		{"surrounding whitespace", "  https://example.com  ", "https://example.com", false},
		{"no scheme", "example.com", "", true},
		{"unsupported scheme", "ftp://example.com", "", true},
		{"no host", "https://", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSiteURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeSiteURL(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeSiteURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindConfigFileOverride(t *testing.T) {
	clearEnv(t, EnvConfigPath)

	override := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(EnvConfigPath, override)

	path, exists := FindConfigFile()
	if path != override {
		t.Errorf("Path = %q, want the override %q", path, override)
	}
	if exists {
		t.Error("Override file does not exist yet")
	}

	if err := os.WriteFile(override, []byte("site_url: https://example.com\n"), 0o600); err != nil {
		t.Fatalf("Failed to write override file: %v", err)
	}

	_, exists = FindConfigFile()
	if !exists {
		t.Error("Override file should now be reported as existing")
	}
}

func TestFileConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	fc := FileConfig{
		SiteURL:        "https://example.com",
		Username:       "editor",
		RequestTimeout: "15s",
		TemplateDir:    "/tmp/templates",
	}
	if err := fc.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Config file mode = %o, want 0600", perm)
	}

	loaded, err := LoadFileFrom(path)
	if err != nil {
		t.Fatalf("LoadFileFrom failed: %v", err)
	}
	if loaded.SiteURL != fc.SiteURL || loaded.Username != fc.Username {
		t.Errorf("Round trip mismatch: %+v", loaded)
	}
	if loaded.RequestTimeout != "15s" || loaded.TemplateDir != "/tmp/templates" {
		t.Errorf("Optional values lost in round trip: %+v", loaded)
	}
	if loaded.InitTime == 0 {
		t.Error("InitTime should be stamped on first save")
	}
	if loaded.Version == "" {
		t.Error("Version should be stamped on save")
	}
}

func TestIsFirstRun(t *testing.T) {
	configPath := isolate(t)

	if !IsFirstRun() {
		t.Error("No config file and no env: should be first run")
	}

	t.Setenv(EnvSiteURL, "https://example.com")
	if IsFirstRun() {
		t.Error("WORDPRESS_URL set: should not be first run")
	}
	clearEnv(t, EnvSiteURL)

	fc := FileConfig{SiteURL: "https://example.com", Username: "editor"}
	if err := fc.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config file: %v", err)
	}
	if IsFirstRun() {
		t.Error("Config file present: should not be first run")
	}
}
