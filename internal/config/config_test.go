package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "polling", cfg.Telegram.Mode)
	assert.Equal(t, "users.json", cfg.Storage.UsersFile)
	assert.Equal(t, "help_queue.json", cfg.Storage.HelpQueueFile)
	assert.Equal(t, 6, cfg.Report.Hour)
	assert.Equal(t, 15, cfg.Report.Minute)
	assert.Equal(t, 3, cfg.Report.UTCOffsetHours)
	assert.Equal(t, 3600, cfg.Archive.IntervalSeconds)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.NotEmpty(t, cfg.Premium.TONWallet)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token-123")
	t.Setenv("TELEGRAM_BOT_MODE", "webhook")
	t.Setenv("ADMIN_CHAT_ID", "555")
	t.Setenv("REPORT_HOUR", "9")
	t.Setenv("ARCHIVE_INTERVAL_SECONDS", "60")

	cfg := Load()

	assert.Equal(t, "token-123", cfg.Telegram.Token)
	assert.Equal(t, "webhook", cfg.Telegram.Mode)
	assert.Equal(t, int64(555), cfg.Admin.ChatID)
	assert.Equal(t, 9, cfg.Report.Hour)
	assert.Equal(t, 60, cfg.Archive.IntervalSeconds)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("ADMIN_CHAT_ID", "не число")
	t.Setenv("REPORT_HOUR", "noon")

	cfg := Load()

	assert.Equal(t, int64(7462557119), cfg.Admin.ChatID)
	assert.Equal(t, 6, cfg.Report.Hour)
}
