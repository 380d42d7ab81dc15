package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesFileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: "9000"
  museumplus_ui_url: https://mp.example.com/
redis:
  addr: redis:6379
auth:
  registerable: true
heartbeat:
  interval_seconds:
    sync_objects: 60
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("HEARTBEAT_INTERVAL_SYNC_HASHES", "120")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "https://mp.example.com/", cfg.App.MuseumPlusURL)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.True(t, cfg.Auth.Registerable)
	assert.True(t, cfg.Auth.CSRFEnabled)
	assert.Equal(t, time.Minute, cfg.Heartbeat.Interval("sync_objects"))
	assert.Equal(t, 2*time.Minute, cfg.Heartbeat.Interval("sync_hashes"))
	assert.Equal(t, 4500*time.Second, cfg.Heartbeat.Interval("sync_processed_sips"))
}

func TestLoadFailsOnExplicitMissingFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestHeartbeatIntervalDefault(t *testing.T) {
	assert.Equal(t, DefaultHeartbeatInterval, HeartbeatConfig{}.Interval("sync_objects"))
}

func TestSessionTTL(t *testing.T) {
	assert.Equal(t, 12*time.Hour, AuthConfig{}.SessionTTL())
	assert.Equal(t, 30*time.Minute, AuthConfig{SessionTTLMinutes: 30}.SessionTTL())
}

func TestCookieEncryptionKey(t *testing.T) {
	a := AuthConfig{SessionSecret: "one"}
	key, err := base64.StdEncoding.DecodeString(a.CookieEncryptionKey())
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.Equal(t, a.CookieEncryptionKey(), AuthConfig{SessionSecret: "one"}.CookieEncryptionKey())
	assert.NotEqual(t, a.CookieEncryptionKey(), AuthConfig{SessionSecret: "two"}.CookieEncryptionKey())
}
