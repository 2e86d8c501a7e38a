package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "live", cfg.Variant)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 12*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, 10*time.Second, cfg.FX.Interval)
	assert.True(t, cfg.FX.Enabled)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, filepath.Join(cfg.DataDir, "goldlive.db"), cfg.Store.Path)
	assert.Equal(t, "edit", cfg.Telegram.PostMode)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
variant: classic
data_dir: /tmp/glr
display:
  shop_name: Sagar Jewellers
feed:
  timeout: 3s
telegram:
  token: abc
  channel_id: -100123
  admin_ids: [1, 2]
  quiet_start: "22:00"
  quiet_end: "08:00"
`)
	t.Setenv("GLR_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("GLR_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "classic", cfg.Variant)
	assert.Equal(t, "Sagar Jewellers", cfg.Display.ShopName)
	assert.Equal(t, 3*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(-100123), cfg.Telegram.ChannelID)
	assert.Equal(t, []int64{1, 2}, cfg.Telegram.AdminIDs)
	assert.Equal(t, "/tmp/glr/backups", cfg.Backup.Dir)

	start, end := cfg.Telegram.QuietHours()
	assert.Equal(t, 22*60, start)
	assert.Equal(t, 8*60, end)
}

func TestLoadAdminIDsFromEnv(t *testing.T) {
	t.Setenv("GLR_TELEGRAM_ADMIN_IDS", "5,6")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, cfg.Telegram.AdminIDs)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
}

func TestLoadValidation(t *testing.T) {
	path := writeFile(t, "bad.yaml", `
variant: neon
store:
  driver: mongo
telegram:
  channel_id: 5
  quiet_start: "25:00"
`)
	_, err := Load(path)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "variant must be live or classic")
	assert.Contains(t, msg, `unknown store.driver "mongo"`)
	assert.Contains(t, msg, "telegram.token is required")
	assert.Contains(t, msg, "telegram.quiet_start must be HH:MM")
}

func TestQuietHoursUnset(t *testing.T) {
	start, end := TelegramConfig{}.QuietHours()
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}
