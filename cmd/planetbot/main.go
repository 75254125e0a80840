package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Krishtopa13/planet-learn-languages/internal/config"
	"github.com/Krishtopa13/planet-learn-languages/internal/handlers"
	"github.com/Krishtopa13/planet-learn-languages/internal/services"
	"github.com/Krishtopa13/planet-learn-languages/internal/storage"
	"github.com/Krishtopa13/planet-learn-languages/internal/telegram"
)

func main() {
	// Загружаем .env, если он есть
	if err := godotenv.Load(); err != nil {
		log.Println(".env не найден, используем переменные окружения")
	}

	// Загружаем конфигурацию
	cfg := config.Load()

	// Проверяем обязательные переменные окружения
	if cfg.Telegram.Token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN не задан в переменных окружения")
	}

	// Инициализируем файловые хранилища.
	// Ошибка чтения означает поврежденные данные: продолжать нельзя.
	userStore := storage.NewUserStore(cfg.Storage.UsersFile)
	if err := userStore.Init(); err != nil {
		log.Fatalf("Ошибка инициализации хранилища пользователей: %v", err)
	}
	log.Printf("Хранилище пользователей инициализировано: %s", userStore.Path())

	queueStore := storage.NewHelpQueueStore(cfg.Storage.HelpQueueFile)
	if err := queueStore.Init(); err != nil {
		log.Fatalf("Ошибка инициализации очереди помощи: %v", err)
	}
	log.Printf("Очередь помощи инициализирована: %s", queueStore.Path())

	// Инициализируем сервисы
	adminService := services.NewAdminService(cfg)
	if err := adminService.ValidateOperatorConfig(); err != nil {
		log.Printf("Предупреждение: %v", err)
	}

	statsService := services.NewStatsService(userStore)
	progressService := services.NewProgressService(userStore)
	log.Println("Сервисы инициализированы")

	// Инициализируем HTTP обработчики
	httpHandler := handlers.NewHTTPHandler(userStore, queueStore, statsService)

	// Определяем режим работы
	mode := telegram.ModePolling // по умолчанию polling
	if cfg.Telegram.Mode == "webhook" {
		mode = telegram.ModeWebhook
	}

	// Создаем бота
	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:      cfg.Telegram.Token,
		Mode:       mode,
		WebhookURL: cfg.Telegram.WebhookURL,
		Port:       cfg.Telegram.WebhookPort,
	})
	if err != nil {
		log.Fatalf("Ошибка создания Telegram бота: %v", err)
	}

	// Создаем обработчик сообщений
	messageProcessor := telegram.NewMessageProcessor(
		userStore,
		queueStore,
		progressService,
		statsService,
		adminService,
		cfg,
	)
	bot.AddHandler(messageProcessor.ProcessMessage)

	// Создаем сервис ежедневного отчёта
	reportService := services.NewReportService(
		statsService,
		adminService,
		bot,
		time.Duration(cfg.Report.PollSeconds)*time.Second,
		cfg.Report.Hour,
		cfg.Report.Minute,
		cfg.Report.UTCOffsetHours,
	)
	if err := reportService.Start(); err != nil {
		log.Printf("Предупреждение: не удалось запустить ежедневный отчёт: %v", err)
	} else {
		log.Printf("Ежедневный отчёт запущен: %02d:%02d UTC%+d", cfg.Report.Hour, cfg.Report.Minute, cfg.Report.UTCOffsetHours)
	}

	// Создаем сервис архивирования
	archiveService := services.NewArchiveService(
		userStore,
		queueStore,
		adminService,
		bot,
		time.Duration(cfg.Archive.IntervalSeconds)*time.Second,
	)
	if err := archiveService.Start(); err != nil {
		log.Printf("Предупреждение: не удалось запустить архивирование: %v", err)
	} else {
		log.Printf("Архивирование запущено с интервалом %d секунд", cfg.Archive.IntervalSeconds)
	}

	// Запускаем бота
	if err := bot.Start(); err != nil {
		log.Fatalf("Ошибка запуска Telegram бота: %v", err)
	}
	log.Printf("Telegram бот запущен в режиме: %s", bot.GetMode())

	// Запускаем HTTP API в отдельной горутине
	go func() {
		log.Printf("HTTP API запущен на %s", cfg.HTTP.Addr)
		if err := http.ListenAndServe(cfg.HTTP.Addr, httpHandler.Router()); err != nil {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	// Ожидаем сигнала для завершения
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	<-signalChan

	log.Println("Сервер завершает работу")

	// Graceful shutdown
	log.Println("Останавливаем архивирование...")
	if err := archiveService.Stop(); err != nil {
		log.Printf("Ошибка остановки архивирования: %v", err)
	}

	log.Println("Останавливаем ежедневный отчёт...")
	if err := reportService.Stop(); err != nil {
		log.Printf("Ошибка остановки отчёта: %v", err)
	}

	log.Println("Останавливаем Telegram бота...")
	if err := bot.Stop(); err != nil {
		log.Printf("Ошибка остановки бота: %v", err)
	}

	log.Println("Сервер успешно завершил работу")
}
