package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Krishtopa13/planet-learn-languages/internal/contracts"
)

// ReportService отправляет оператору ежедневный отчёт.
// Цикл просыпается каждые pollInterval, сравнивает часы и минуты
// в фиксированном смещении от UTC и отправляет отчёт не чаще раза в день.
type ReportService struct {
	stats        *StatsService
	admin        *AdminService
	sender       contracts.TelegramMessageSender
	pollInterval time.Duration
	hour         int
	minute       int
	location     *time.Location

	lastReportDate string
	stopChan       chan struct{}
	wg             sync.WaitGroup
	isRunning      bool
	mu             sync.RWMutex
	now            func() time.Time
}

// NewReportService создает новый сервис ежедневного отчёта
func NewReportService(
	stats *StatsService,
	admin *AdminService,
	sender contracts.TelegramMessageSender,
	pollInterval time.Duration,
	hour, minute, utcOffsetHours int,
) *ReportService {
	return &ReportService{
		stats:        stats,
		admin:        admin,
		sender:       sender,
		pollInterval: pollInterval,
		hour:         hour,
		minute:       minute,
		location:     time.FixedZone(fmt.Sprintf("UTC%+d", utcOffsetHours), utcOffsetHours*3600),
		stopChan:     make(chan struct{}),
		now:          time.Now,
	}
}

// Start запускает цикл ежедневного отчёта
func (s *ReportService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("ежедневный отчёт уже запущен")
	}

	s.stopChan = make(chan struct{})
	s.isRunning = true
	s.wg.Add(1)

	go s.loop()

	log.Printf("[DailyReport] Запущен: %02d:%02d (%s), интервал опроса %v", s.hour, s.minute, s.location, s.pollInterval)
	return nil
}

// Stop останавливает цикл ежедневного отчёта
func (s *ReportService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return fmt.Errorf("ежедневный отчёт не запущен")
	}

	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}

	s.wg.Wait()
	s.isRunning = false

	log.Printf("[DailyReport] Остановлен")
	return nil
}

// IsRunning проверяет, запущен ли цикл
func (s *ReportService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *ReportService) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkAndSend()
		case <-s.stopChan:
			return
		}
	}
}

// checkAndSend отправляет отчёт, если наступила заданная минута
// и отчёт за сегодняшний день еще не уходил
func (s *ReportService) checkAndSend() {
	now := s.now().In(s.location)
	if now.Hour() != s.hour || now.Minute() != s.minute {
		return
	}

	today := now.Format("2006-01-02")
	if s.lastReportDate == today {
		return
	}

	stats, err := s.stats.Calculate()
	if err != nil {
		log.Printf("[DailyReport] Ошибка расчёта статистики: %v", err)
		return
	}

	message := fmt.Sprintf(
		"📈 Ежедневный отчёт:\n\n👥 Всего: %d\n💎 Премиум: %d\n➕ Новых: %d\n💰 Оплат: %d",
		stats.TotalUsers, stats.TotalPremium, stats.NewToday, stats.PaymentsToday,
	)

	if err := s.sender.SendMessage(s.admin.OperatorChatID(), message); err != nil {
		// Цикл продолжается по расписанию, неудачная отправка не повторяется
		log.Printf("[DailyReport] Ошибка отправки отчёта оператору: %v", err)
		return
	}

	s.lastReportDate = today
	log.Printf("[DailyReport] Отчёт за %s отправлен оператору", today)
}
