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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "controller:\n  url: http://192.168.1.20:8080\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "24h", cfg.Display.TimeFormat)
	assert.Equal(t, time.Minute, cfg.Schedule.RefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.Schedule.RetryInterval)
	assert.Equal(t, 0.05, cfg.Schedule.VisibilityEpsilon)
	assert.Equal(t, 0.05, cfg.Schedule.MinWidth)
	assert.Equal(t, time.Second, cfg.Status.FastInterval)
	assert.Equal(t, 30*time.Second, cfg.Status.SlowInterval)
	assert.Equal(t, time.Second, cfg.Countdown.Tick)
	assert.Equal(t, "irrigation.db", cfg.Database.DSN)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.False(t, cfg.Push.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
controller:
  url: http://ospy.local
  headers:
    Authorization: Basic abc
display:
  time_format: 12h
  clock_offset_seconds: -30
status:
  slow_interval_ms: 15000
push:
  vapid_public_key: pub
  vapid_private_key: priv
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "12h", cfg.Display.TimeFormat)
	assert.Equal(t, -30, cfg.Display.ClockOffsetSeconds)
	assert.Equal(t, 15*time.Second, cfg.Status.SlowInterval)
	assert.Equal(t, "Basic abc", cfg.Controller.Headers["Authorization"])
	assert.True(t, cfg.Push.Enabled())
}

func TestLoad_RequiresControllerURL(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownTimeFormatFallsBack(t *testing.T) {
	path := writeConfig(t, "controller:\n  url: http://x\ndisplay:\n  time_format: roman\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "24h", cfg.Display.TimeFormat)
}
