package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "127.0.0.1"

session:
  pairing_wait_seconds: 30
  reconnect_delay_seconds: 2
  max_reconnect_attempts: 5
  directory_ttl_minutes: 1

dispatch:
  task_retention_minutes: 3
  cancel_poll_millis: 250

redis:
  addr: "redis.internal:6380"
  key_prefix: "gw-test"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.GetHost())

	assert.Equal(t, 30*time.Second, cfg.Session.PairingWait())
	assert.Equal(t, 2*time.Second, cfg.Session.ReconnectDelay())
	assert.Equal(t, 5, cfg.Session.ReconnectBudget())
	assert.Equal(t, time.Minute, cfg.Session.DirectoryTTL())

	assert.Equal(t, 3*time.Minute, cfg.Dispatch.TaskRetention())
	assert.Equal(t, 250*time.Millisecond, cfg.Dispatch.CancelPoll())

	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "gw-test", cfg.Redis.KeyPrefix)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 8081\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 120*time.Second, cfg.Session.PairingWait())
	assert.Equal(t, 5*time.Second, cfg.Session.ReconnectDelay())
	assert.Equal(t, 3, cfg.Session.ReconnectBudget())
	assert.Equal(t, 5*time.Minute, cfg.Session.DirectoryTTL())
	assert.Equal(t, 10*time.Minute, cfg.Dispatch.TaskRetention())
	assert.Equal(t, 500*time.Millisecond, cfg.Dispatch.CancelPoll())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "chatgw", cfg.Redis.KeyPrefix)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadHonorsZeroReconnectBudget(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath,
		[]byte("session:\n  max_reconnect_attempts: 0\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// An explicit zero means "never reconnect" and must not be replaced
	// by the default
	assert.Equal(t, 0, cfg.Session.ReconnectBudget())
}

func TestLoadRejectsNegativeReconnectBudget(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath,
		[]byte("session:\n  max_reconnect_attempts: -1\n"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_reconnect_attempts")
}

func TestLoadRejectsBadPollGranularity(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("dispatch:\n  cancel_poll_millis: 50\n"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancel_poll_millis")
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("REDIS_ADDR", "override:6379")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "override:6379", cfg.Redis.Addr)
}
