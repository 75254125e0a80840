package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// HelpQueueStore управляет файлом help_queue.json — списком идентификаторов
// пользователей, ожидающих спонсорской оплаты премиума. Порядок — порядок
// вставки, дубликаты не допускаются.
type HelpQueueStore struct {
	path string
	mu   sync.Mutex
}

// NewHelpQueueStore создает новое хранилище очереди помощи
func NewHelpQueueStore(path string) *HelpQueueStore {
	return &HelpQueueStore{path: path}
}

// Init создает пустой файл с "[]", если файла еще нет
func (s *HelpQueueStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("ошибка проверки файла очереди помощи: %w", err)
	}
	return s.write([]string{})
}

// Load читает очередь целиком; ошибки чтения и декодирования возвращаются как есть
func (s *HelpQueueStore) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Save перезаписывает весь файл переданным списком
func (s *HelpQueueStore) Save(queue []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(queue)
}

// Enqueue добавляет идентификатор в конец очереди.
// Возвращает false без изменения файла, если идентификатор уже в очереди.
func (s *HelpQueueStore) Enqueue(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.read()
	if err != nil {
		return false, err
	}
	for _, id := range queue {
		if id == userID {
			return false, nil
		}
	}

	queue = append(queue, userID)
	if err := s.write(queue); err != nil {
		return false, err
	}
	return true, nil
}

// Len возвращает длину очереди
func (s *HelpQueueStore) Len() (int, error) {
	queue, err := s.Load()
	if err != nil {
		return 0, err
	}
	return len(queue), nil
}

// Path возвращает путь к файлу хранилища
func (s *HelpQueueStore) Path() string {
	return s.path
}

func (s *HelpQueueStore) read() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", s.path, err)
	}

	var queue []string
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("ошибка декодирования %s: %w", s.path, err)
	}
	return queue, nil
}

func (s *HelpQueueStore) write(queue []string) error {
	data, err := json.MarshalIndent(queue, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации очереди помощи: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("ошибка замены %s: %w", s.path, err)
	}
	return nil
}
