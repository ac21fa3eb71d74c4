package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))
	yaml := `
server:
  port: ":8088"
executor:
  timeout_seconds: 5
ratelimit:
  enabled: true
  requests_per_second: 2.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte(yaml), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8088", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Executor.Timeout())
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)

	// Unset fields fall back to defaults.
	assert.Equal(t, "postman_clone.db", cfg.Database.Path)
	assert.Equal(t, int64(50*1024*1024), cfg.Executor.MaxResponseBytes)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL())
}

func TestLoadMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load()
	assert.Error(t, err)
}

func TestStoreGetCopies(t *testing.T) {
	store := NewStore(&Config{Server: ServerConfig{Port: ":1"}})

	got := store.Get()
	require.NotNil(t, got)
	got.Server.Port = ":2"

	assert.Equal(t, ":1", store.Get().Server.Port, "callers mutate a copy, not the shared config")
}

func TestStoreGetNil(t *testing.T) {
	var store Store
	assert.Nil(t, store.Get())
}
