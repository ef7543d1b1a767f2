package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets vars for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAMLWithDefaults(t *testing.T) {
	clearEnv(t, "VAULT_ADDR", "VAULT_TOKEN", "VAULTFS_KV_MOUNT", "VAULTFS_VAULT_TIMEOUT", "VAULTFS_STATUS_ADDR", "VAULTFS_DB_ENABLED")

	path := writeConfig(t, "config.yaml", `
vault:
  address: http://127.0.0.1:8200
  token: root
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8200", cfg.Vault.Address)
	assert.Equal(t, "root", cfg.Vault.Token)
	assert.Equal(t, "secret", cfg.Vault.KVMount)
	assert.Equal(t, 10*time.Second, cfg.Vault.Timeout)
	assert.Equal(t, "vaultfs", cfg.Mount.FsName)
	assert.Equal(t, time.Second, cfg.Mount.AttrTimeout)
	assert.Empty(t, cfg.Status.Addr)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	clearEnv(t, "VAULT_ADDR", "VAULT_TOKEN")
	t.Setenv("TEST_VAULTFS_TOKEN", "s.expanded")

	path := writeConfig(t, "config.yml", `
vault:
  address: http://vault:8200
  token: ${TEST_VAULTFS_TOKEN}
  kv_mount: kv
  timeout: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s.expanded", cfg.Vault.Token)
	assert.Equal(t, "kv", cfg.Vault.KVMount)
	assert.Equal(t, 3*time.Second, cfg.Vault.Timeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t, "VAULTFS_KV_MOUNT")
	t.Setenv("VAULT_ADDR", "http://override:8200")
	t.Setenv("VAULT_TOKEN", "s.env")
	t.Setenv("VAULTFS_STATUS_ADDR", "127.0.0.1:9100")

	path := writeConfig(t, "config.yaml", `
vault:
  address: http://file:8200
  token: file
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://override:8200", cfg.Vault.Address)
	assert.Equal(t, "s.env", cfg.Vault.Token)
	assert.Equal(t, "127.0.0.1:9100", cfg.Status.Addr)
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t, "VAULT_ADDR", "VAULT_TOKEN", "VAULTFS_DB_ENABLED", "VAULTFS_DB_HOST")

	path := writeConfig(t, "config.toml", `
[vault]
address = "http://127.0.0.1:8200"
token = "root"

[mount]
fs_name = "secrets"
allow_other = true

[database]
enabled = true
host = "db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "root", cfg.Vault.Token)
	assert.Equal(t, "secrets", cfg.Mount.FsName)
	assert.True(t, cfg.Mount.AllowOther)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "vaultfs", cfg.Database.Schema)
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t, "VAULT_ADDR", "VAULT_TOKEN", "VAULTFS_KV_MOUNT", "VAULTFS_STATUS_ADDR")

	path := writeConfig(t, "config.json", `{
  "vault": {"address": "http://127.0.0.1:8200", "token": "root", "kv_mount": "kv"},
  "mount": {"fs_name": "secrets"},
  "status": {"addr": "127.0.0.1:9100"}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8200", cfg.Vault.Address)
	assert.Equal(t, "root", cfg.Vault.Token)
	assert.Equal(t, "kv", cfg.Vault.KVMount)
	assert.Equal(t, 10*time.Second, cfg.Vault.Timeout)
	assert.Equal(t, "secrets", cfg.Mount.FsName)
	assert.Equal(t, "127.0.0.1:9100", cfg.Status.Addr)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t, "VAULT_ADDR", "VAULT_TOKEN")

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "empty path",
			path: func(*testing.T) string { return "" },
		},
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") },
		},
		{
			name: "unsupported extension",
			path: func(t *testing.T) string { return writeConfig(t, "config.ini", "[vault]\naddress = x\n") },
		},
		{
			name: "missing token",
			path: func(t *testing.T) string {
				return writeConfig(t, "config.yaml", "vault:\n  address: http://127.0.0.1:8200\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestMustLoadPanics(t *testing.T) {
	assert.Panics(t, func() { MustLoad("") })
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "vault fs",
		Password: "p@ss",
		Name:     "journal",
		SSLMode:  "require",
	}

	assert.Equal(t, "postgres://vault%20fs:p%40ss@db:5433/journal?sslmode=require", cfg.DSN())
}
