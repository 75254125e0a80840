package services

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Krishtopa13/planet-learn-languages/internal/contracts"
	"github.com/Krishtopa13/planet-learn-languages/internal/storage"
)

// ArchiveService раз в заданный интервал собирает оба файла хранилищ
// в zip-архив и отправляет его оператору. Архив после отправки удаляется,
// локально не хранится. Любая ошибка итерации логируется, цикл продолжается.
type ArchiveService struct {
	users    *storage.UserStore
	queue    *storage.HelpQueueStore
	admin    *AdminService
	sender   contracts.TelegramDocumentSender
	interval time.Duration

	stopChan  chan struct{}
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
	now       func() time.Time
}

// NewArchiveService создает новый сервис архивирования
func NewArchiveService(
	users *storage.UserStore,
	queue *storage.HelpQueueStore,
	admin *AdminService,
	sender contracts.TelegramDocumentSender,
	interval time.Duration,
) *ArchiveService {
	return &ArchiveService{
		users:    users,
		queue:    queue,
		admin:    admin,
		sender:   sender,
		interval: interval,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start запускает цикл архивирования
func (s *ArchiveService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("архивирование уже запущено")
	}

	s.stopChan = make(chan struct{})
	s.isRunning = true
	s.wg.Add(1)

	go s.loop()

	log.Printf("[Archive] Архивирование запущено с интервалом %v", s.interval)
	return nil
}

// Stop останавливает цикл архивирования
func (s *ArchiveService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return fmt.Errorf("архивирование не запущено")
	}

	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}

	s.wg.Wait()
	s.isRunning = false

	log.Printf("[Archive] Архивирование остановлено")
	return nil
}

// IsRunning проверяет, запущен ли цикл
func (s *ArchiveService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *ArchiveService) loop() {
	defer s.wg.Done()

	// Первый архив уходит сразу при старте, дальше по интервалу
	if err := s.RunOnce(); err != nil {
		log.Printf("[Archive] Ошибка итерации архивирования: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunOnce(); err != nil {
				log.Printf("[Archive] Ошибка итерации архивирования: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

// RunOnce выполняет одну итерацию: перечитывает и перезаписывает оба файла,
// собирает архив backup_<timestamp>_users_<count>.zip, отправляет его
// оператору и удаляет локальную копию
func (s *ArchiveService) RunOnce() error {
	// Холостой цикл чтения-записи обоих файлов: содержимое не меняется,
	// но битый файл обнаруживается до упаковки
	users, err := s.users.Load()
	if err != nil {
		return fmt.Errorf("ошибка чтения пользователей: %w", err)
	}
	if err := s.users.Save(users); err != nil {
		return fmt.Errorf("ошибка перезаписи пользователей: %w", err)
	}

	queue, err := s.queue.Load()
	if err != nil {
		return fmt.Errorf("ошибка чтения очереди помощи: %w", err)
	}
	if err := s.queue.Save(queue); err != nil {
		return fmt.Errorf("ошибка перезаписи очереди помощи: %w", err)
	}

	zipName := fmt.Sprintf("backup_%s_users_%d.zip", s.now().Format("20060102_1504"), len(users))
	if err := s.buildZip(zipName); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(zipName); err != nil {
			log.Printf("[Archive] Ошибка удаления архива %s: %v", zipName, err)
		}
	}()

	caption := fmt.Sprintf("🗄 Резервная копия: %d пользователей", len(users))
	if err := s.sender.SendDocument(s.admin.OperatorChatID(), zipName, caption); err != nil {
		return fmt.Errorf("ошибка отправки архива оператору: %w", err)
	}

	log.Printf("[Archive] Архив %s отправлен оператору", zipName)
	return nil
}

// buildZip упаковывает оба файла хранилищ в архив как есть
func (s *ArchiveService) buildZip(zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("ошибка создания архива %s: %w", zipPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, path := range []string{s.users.Path(), s.queue.Path()} {
		if err := addFileToZip(zw, path); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("ошибка завершения архива %s: %w", zipPath, err)
	}
	return nil
}

func addFileToZip(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ошибка открытия %s: %w", path, err)
	}
	defer in.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("ошибка добавления %s в архив: %w", path, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("ошибка копирования %s в архив: %w", path, err)
	}
	return nil
}
