package setupmenu

import (
	"os"
	"path/filepath"
	"testing"

	"wpmcp/internal/config"
)

// SetTestConfigPath points WPMCP_CONFIG_PATH at a file inside a temporary
// directory and returns that path. This prevents wizard tests from touching
// the user's real config; cleanup runs via t.Cleanup.
func SetTestConfigPath(t *testing.T) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")

	original, had := os.LookupEnv(config.EnvConfigPath)
	if err := os.Setenv(config.EnvConfigPath, configPath); err != nil {
		t.Fatalf("Failed to set %s: %v", config.EnvConfigPath, err)
	}

	t.Cleanup(func() {
		if had {
			os.Setenv(config.EnvConfigPath, original)
		} else {
			os.Unsetenv(config.EnvConfigPath)
		}
	})

	return configPath
}

// FileExists checks if a file or directory exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
