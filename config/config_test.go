package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 180, cfg.Scheduler.MaxRequests)
	assert.Equal(t, 60*time.Second, cfg.Scheduler.Window)
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.Spacing)
	assert.Equal(t, 60*time.Second, cfg.Scheduler.DefaultRetryAfter)
	assert.Equal(t, 30, cfg.Aux.MaxRequests)
	assert.Equal(t, 50, cfg.Gateway.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Gateway.SnapshotTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.Gateway.FallbackDelay)
	assert.Equal(t, 5*time.Minute, cfg.Cache.JanitorInterval)
	assert.Equal(t, ":3001", cfg.Server.Listen)
	assert.False(t, cfg.Alpaca.Configured())
}

func TestLoad_File(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ALPACA_API_KEY", "")
	t.Setenv("ALPACA_FEED", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("MGATE_LOG_LEVEL", "")
	path := writeFile(t, t.TempDir(), "custom.yaml", `
log:
  level: debug
scheduler:
  max_requests: 90
  window: 30s
gateway:
  batch_size: 20
  snapshot_ttl: 1m
alpaca:
  key_id: file-key
  feed: sip
redis:
  addr: localhost:6379
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, log.DebugLevel, cfg.Level())
	assert.Equal(t, 90, cfg.Scheduler.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Window)
	// untouched fields keep their default
	assert.Equal(t, "alpaca", cfg.Scheduler.Name)
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.Spacing)
	assert.Equal(t, 20, cfg.Gateway.BatchSize)
	assert.Equal(t, time.Minute, cfg.Gateway.SnapshotTTL)
	assert.NotNil(t, cfg.Gateway.Calendar.Location)
	assert.Equal(t, "file-key", cfg.Alpaca.KeyID)
	assert.Equal(t, "sip", cfg.Alpaca.Feed)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "mgate:", cfg.Redis.Prefix)
}

func TestLoad_MissingFiles(t *testing.T) {
	t.Chdir(t.TempDir())

	// the default file is optional
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Gateway.BatchSize, cfg.Gateway.BatchSize)

	// an explicit one is not
	_, err = Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoad_DefaultFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, DefaultFile, "gateway:\n  batch_size: 10\n")
	writeFile(t, dir, ".env", "ALPACA_API_KEY=env-key\nALPACA_SECRET_KEY=env-secret\n")
	t.Setenv("ALPACA_API_KEY", "shell-key") // .env does not override the shell
	t.Setenv("ALPACA_SECRET_KEY", "")
	os.Unsetenv("ALPACA_SECRET_KEY")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Gateway.BatchSize)
	assert.Equal(t, "shell-key", cfg.Alpaca.KeyID)
	assert.Equal(t, "env-secret", cfg.Alpaca.SecretKey)
	assert.True(t, cfg.Alpaca.Configured())
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "gateway: [\n"},
		{"batch size", "gateway:\n  batch_size: 0\n"},
		{"negative budget", "scheduler:\n  max_requests: -1\n"},
		{"level", "log:\n  level: chatty\n"},
		{"cache", "cache:\n  janitor_interval: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".yaml", tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ALPACA_DATA_URL": "http://localhost:9999/v2",
		"REDIS_ADDR":      "redis:6379",
		"MGATE_LISTEN":    "127.0.0.1:8080",
		"MGATE_LOG_LEVEL": "warn",
		"ALPACA_FEED":     "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, "http://localhost:9999/v2", cfg.Alpaca.BaseURL)
	assert.Equal(t, "iex", cfg.Alpaca.Feed, "empty variables are ignored")
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, log.WarnLevel, cfg.Level())

	env["PORT"] = "4000"
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, ":4000", cfg.Server.Listen)

	env["PORT"] = "http"
	assert.Error(t, cfg.applyEnv(lookup))
}
