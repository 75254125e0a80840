package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Profile представляет персистентную запись одного пользователя.
// Набор полей и ключи JSON фиксированы: файл users.json — внешний интерфейс,
// неизвестные поля при чтении отклоняются.
type Profile struct {
	Name                 *string `json:"name"`
	Goal                 *string `json:"goal"`
	IsPremium            bool    `json:"is_premium"`
	Points               int     `json:"points"`
	CurrentLevel         string  `json:"current_level"`
	LessonIndex          int     `json:"lesson_index"`
	Language             string  `json:"language"`
	VoiceEnabled         bool    `json:"voice_enabled"`
	Voice                string  `json:"voice"`
	Accent               string  `json:"accent"`
	StartTime            string  `json:"start_time"`
	LastPositiveDate     string  `json:"last_positive_date"`
	DailyPositiveEnabled bool    `json:"daily_positive_enabled"`
	RegistrationTime     string  `json:"registration_time"`
	PremiumTime          *string `json:"premium_time"`
	PlanPerDay           *string `json:"plan_per_day"`
	GuestMode            bool    `json:"guest_mode"`
}

// NewProfile создает профиль со значениями по умолчанию на момент первого контакта
func NewProfile(now time.Time) *Profile {
	today := now.Format("2006-01-02")
	return &Profile{
		Name:                 nil,
		Goal:                 nil,
		IsPremium:            false,
		Points:               0,
		CurrentLevel:         "A1",
		LessonIndex:          0,
		Language:             "en",
		VoiceEnabled:         true,
		Voice:                "male",
		Accent:               "american",
		StartTime:            today,
		LastPositiveDate:     "",
		DailyPositiveEnabled: true,
		RegistrationTime:     today,
		PremiumTime:          nil,
		PlanPerDay:           nil,
		GuestMode:            false,
	}
}

// UserStore управляет файлом users.json: вся коллекция целиком
// перечитывается и перезаписывается на каждую мутацию.
// Мьютекс сериализует циклы load-mutate-save между горутинами.
type UserStore struct {
	path string
	mu   sync.Mutex
}

// NewUserStore создает новое хранилище пользователей
func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

// Init создает пустой файл с "{}", если файла еще нет.
// Вызывается один раз при старте процесса, до всех остальных операций.
func (s *UserStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("ошибка проверки файла пользователей: %w", err)
	}
	return s.write(map[string]*Profile{})
}

// Load читает всю коллекцию профилей. Ошибки чтения и декодирования
// возвращаются как есть: подменять данные значениями по умолчанию нельзя.
func (s *UserStore) Load() (map[string]*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Save перезаписывает весь файл переданной коллекцией
func (s *UserStore) Save(users map[string]*Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(users)
}

// Get возвращает профиль пользователя, если он существует
func (s *UserStore) Get(userID string) (*Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.read()
	if err != nil {
		return nil, false, err
	}
	profile, ok := users[userID]
	return profile, ok, nil
}

// Create создает профиль с значениями по умолчанию, если его еще нет.
// Возвращает профиль и признак того, был ли он создан этим вызовом.
func (s *UserStore) Create(userID string, now time.Time) (*Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.read()
	if err != nil {
		return nil, false, err
	}
	if existing, ok := users[userID]; ok {
		return existing, false, nil
	}

	profile := NewProfile(now)
	users[userID] = profile
	if err := s.write(users); err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

// Update атомарно применяет мутацию к профилю и перезаписывает файл
func (s *UserStore) Update(userID string, fn func(*Profile)) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.read()
	if err != nil {
		return nil, err
	}
	profile, ok := users[userID]
	if !ok {
		return nil, fmt.Errorf("пользователь %s не найден", userID)
	}

	fn(profile)
	if err := s.write(users); err != nil {
		return nil, err
	}
	return profile, nil
}

// All возвращает копию всей коллекции
func (s *UserStore) All() (map[string]*Profile, error) {
	return s.Load()
}

// Count возвращает количество профилей
func (s *UserStore) Count() (int, error) {
	users, err := s.Load()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// Path возвращает путь к файлу хранилища
func (s *UserStore) Path() string {
	return s.path
}

func (s *UserStore) read() (map[string]*Profile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", s.path, err)
	}

	users := make(map[string]*Profile)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&users); err != nil {
		return nil, fmt.Errorf("ошибка декодирования %s: %w", s.path, err)
	}
	return users, nil
}

// write сериализует коллекцию с отступами (не-ASCII сохраняется как есть)
// и атомарно подменяет файл через rename временного файла
func (s *UserStore) write(users map[string]*Profile) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации пользователей: %w", err)
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
