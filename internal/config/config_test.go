package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "./emote_relay.db", cfg.DatabasePath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 2, cfg.Emotes.DefaultSize)
	assert.Equal(t, time.Hour, cfg.Emotes.RefreshInterval())
	assert.Equal(t, 30*time.Second, cfg.Emotes.LoadTimeout())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Render.Sanitize)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_path: /tmp/relay.db
emotes:
  default_size: 3
  refresh_interval_seconds: 60
render:
  sanitize: true
`), 0o644))

	t.Setenv("EMOTE_RELAY_LISTEN_ADDR", ":7000")
	t.Setenv("EMOTE_RELAY_TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/relay.db", cfg.DatabasePath)
	assert.Equal(t, 3, cfg.Emotes.DefaultSize)
	assert.Equal(t, time.Minute, cfg.Emotes.RefreshInterval())
	assert.True(t, cfg.Render.Sanitize)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
