package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  secret: test-secret
users:
  - id: 1
    username: admin
    password_hash: "$2a$10$abcdefghijklmnopqrstuv"
    role: admin
`)
	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local", conf.Env)
	assert.Equal(t, "8080", conf.Listen.Port)
	assert.Equal(t, DriverMemory, conf.Store.Driver)
	assert.Equal(t, time.Hour, conf.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, conf.Auth.RefreshTTL)
	assert.Equal(t, 5*time.Second, conf.HTTP.RequestTimeout)
	require.Len(t, conf.Users, 1)
	assert.Equal(t, "admin", conf.Users[0].Username)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	path := writeConfig(t, "env: local\n")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", conf.Listen.Port)
	assert.Equal(t, "from-env", conf.Auth.Secret)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeConfig(t, "env: local\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")
}

func TestValidateStoreDriver(t *testing.T) {
	conf := &Config{
		Auth:  AuthConfig{Secret: "s", AccessTTL: time.Hour, RefreshTTL: time.Hour},
		Store: StoreConfig{Driver: "sqlite"},
	}
	assert.Error(t, conf.Validate())

	conf.Store.Driver = DriverPostgres
	assert.Error(t, conf.Validate())

	conf.Store.Url = "postgres://localhost/entrypass"
	assert.NoError(t, conf.Validate())
}
