package config

import (
	"os"
	"strconv"
)

// Config содержит конфигурацию приложения
type Config struct {
	Telegram TelegramConfig
	Storage  StorageConfig
	Admin    AdminConfig
	Report   ReportConfig
	Archive  ArchiveConfig
	HTTP     HTTPConfig
	Premium  PremiumConfig
}

// TelegramConfig содержит конфигурацию Telegram бота
type TelegramConfig struct {
	Token       string
	Mode        string
	WebhookURL  string
	WebhookPort string
}

// StorageConfig содержит пути к файлам хранилищ
type StorageConfig struct {
	UsersFile     string
	HelpQueueFile string
}

// AdminConfig содержит конфигурацию оператора бота
type AdminConfig struct {
	ChatID int64
}

// ReportConfig содержит расписание ежедневного отчёта
type ReportConfig struct {
	Hour           int
	Minute         int
	UTCOffsetHours int
	PollSeconds    int
}

// ArchiveConfig содержит конфигурацию часового архивирования
type ArchiveConfig struct {
	IntervalSeconds int
}

// HTTPConfig содержит конфигурацию HTTP API
type HTTPConfig struct {
	Addr string
}

// PremiumConfig содержит параметры премиум-оплаты
type PremiumConfig struct {
	TONWallet string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:       getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""),
			Mode:        getEnvOrDefault("TELEGRAM_BOT_MODE", "polling"),
			WebhookURL:  getEnvOrDefault("TELEGRAM_WEBHOOK_URL", ""),
			WebhookPort: getEnvOrDefault("TELEGRAM_WEBHOOK_PORT", "8443"),
		},
		Storage: StorageConfig{
			UsersFile:     getEnvOrDefault("USERS_FILE", "users.json"),
			HelpQueueFile: getEnvOrDefault("HELP_QUEUE_FILE", "help_queue.json"),
		},
		Admin: AdminConfig{
			ChatID: getEnvAsInt64("ADMIN_CHAT_ID", 7462557119),
		},
		Report: ReportConfig{
			Hour:           getEnvAsInt("REPORT_HOUR", 6),
			Minute:         getEnvAsInt("REPORT_MINUTE", 15),
			UTCOffsetHours: getEnvAsInt("REPORT_UTC_OFFSET_HOURS", 3),
			PollSeconds:    getEnvAsInt("REPORT_POLL_SECONDS", 60),
		},
		Archive: ArchiveConfig{
			IntervalSeconds: getEnvAsInt("ARCHIVE_INTERVAL_SECONDS", 3600),
		},
		HTTP: HTTPConfig{
			Addr: getEnvOrDefault("HTTP_ADDR", ":8080"),
		},
		Premium: PremiumConfig{
			TONWallet: getEnvOrDefault("TON_WALLET", "UQD5Czj7punsmiU_3dIlcb6bSc5GGzPIi_CfreRBERayOUJG"),
		},
	}
}

// getEnvOrDefault получает значение переменной окружения или возвращает значение по умолчанию
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int или возвращает значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsInt64 получает значение переменной окружения как int64 или возвращает значение по умолчанию
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
