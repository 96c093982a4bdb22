package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"FLOWGUARD_CONFIG", "FLOWGUARD_STORE_URL", "FLOWGUARD_STORE_TOKEN",
		"FLOWGUARD_STORE_ADMIN_TOKEN", "FLOWGUARD_DATABASE_URL", "FLOWGUARD_TRANSPORT",
		"FLOWGUARD_PORT", "FLOWGUARD_HOST", "FLOWGUARD_CORS_ORIGINS", "FLOWGUARD_LOG_LEVEL",
		"FLOWGUARD_AUDIT_ENABLED", "FLOWGUARD_AUDIT_INTERVAL_HOURS",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}

// emptyConfigPath points Load at an empty, but existing, TOML file so tests
// exercise default values without picking up a stray flowguard.toml from the
// working directory.
func emptyConfigPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestLoad_DefaultsRequireTokenInStdioMode(t *testing.T) {
	clearEnv(t)

	_, err := Load(emptyConfigPath(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store token is required")
}

func TestLoad_StdioWithTokenSucceeds(t *testing.T) {
	clearEnv(t)
	os.Setenv("FLOWGUARD_STORE_TOKEN", "tok_abc")
	defer os.Unsetenv("FLOWGUARD_STORE_TOKEN")

	cfg, err := Load(emptyConfigPath(t))
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", cfg.Store.Token)
	assert.Equal(t, "stdio", cfg.Transport.Mode)
}

func TestLoad_HTTPModeWithAuditRequiresAdminTokenAndDatabase(t *testing.T) {
	clearEnv(t)
	path := emptyConfigPath(t)
	os.Setenv("FLOWGUARD_TRANSPORT", "http")
	os.Setenv("FLOWGUARD_AUDIT_ENABLED", "true")
	defer clearEnv(t)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_token is required")

	os.Setenv("FLOWGUARD_STORE_ADMIN_TOKEN", "admin_tok")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url is required")

	os.Setenv("FLOWGUARD_DATABASE_URL", "postgres://localhost/flowguard")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "admin_tok", cfg.Store.AdminToken)
}

func TestLoad_InvalidTransportMode(t *testing.T) {
	clearEnv(t)
	os.Setenv("FLOWGUARD_TRANSPORT", "carrier-pigeon")
	defer os.Unsetenv("FLOWGUARD_TRANSPORT")

	_, err := Load(emptyConfigPath(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transport mode")
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "flowguard.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[store]
url = "http://file.example:3002"
token = "file_token"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file_token", cfg.Store.Token)

	os.Setenv("FLOWGUARD_STORE_TOKEN", "env_token")
	defer os.Unsetenv("FLOWGUARD_STORE_TOKEN")

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env_token", cfg.Store.Token, "env var must override file value")
	assert.Equal(t, "http://file.example:3002", cfg.Store.URL)
}
