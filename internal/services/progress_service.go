package services

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Krishtopa13/planet-learn-languages/internal/lessons"
	"github.com/Krishtopa13/planet-learn-languages/internal/storage"

	"github.com/google/uuid"
)

// PendingState представляет ожидаемый следующий ввод от пользователя
type PendingState string

const (
	PendingNone PendingState = "none"
	PendingName PendingState = "awaiting_name"
	PendingGoal PendingState = "awaiting_goal"
	PendingPlan PendingState = "awaiting_plan"
	PendingTest PendingState = "test_in_progress"
)

// Награда за урок, пройденный без единой ошибки
const lessonBonusPoints = 10

// Сессия, по которой не было ответов дольше этого срока, считается брошенной
const sessionTTL = time.Hour

var (
	// ErrNoSession возвращается, когда ответ пришел без активной тестовой сессии
	ErrNoSession = errors.New("активная тестовая сессия не найдена")
	// ErrNoQuestions возвращается, когда для текущего урока нет вопросов
	ErrNoQuestions = errors.New("нет вопросов для теста")
	// ErrNoProfile возвращается, когда профиль пользователя не найден в хранилище
	ErrNoProfile = errors.New("профиль пользователя не найден")
)

// TestSession представляет активную тестовую сессию одного пользователя.
// Сессия живет только в памяти процесса и не переживает рестарт.
type TestSession struct {
	ID           string
	Questions    []lessons.QA
	CurrentIndex int
	Correct      int
	StartedAt    time.Time
}

// AnswerResult описывает исход одного принятого ответа
type AnswerResult struct {
	Correct    bool
	Expected   string
	Done       bool
	NextPrompt string
	NextNumber int
	Score      int
	Total      int
	Passed     bool
}

// ProgressService управляет продвижением пользователей по урокам:
// ожидаемыми вводами (регистрация, план, тест) и активными тестовыми сессиями
type ProgressService struct {
	users    *storage.UserStore
	mu       sync.Mutex
	pending  map[string]PendingState
	sessions map[string]*TestSession
	now      func() time.Time
}

// NewProgressService создает новый сервис продвижения
func NewProgressService(users *storage.UserStore) *ProgressService {
	return &ProgressService{
		users:    users,
		pending:  make(map[string]PendingState),
		sessions: make(map[string]*TestSession),
		now:      time.Now,
	}
}

// Pending возвращает ожидаемый ввод пользователя
func (s *ProgressService) Pending(userID string) PendingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.pending[userID]; ok {
		return state
	}
	return PendingNone
}

// SetPending устанавливает ожидаемый ввод пользователя
func (s *ProgressService) SetPending(userID string, state PendingState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == PendingNone {
		delete(s.pending, userID)
		return
	}
	s.pending[userID] = state
}

// ClearPending сбрасывает ожидаемый ввод пользователя
func (s *ProgressService) ClearPending(userID string) {
	s.SetPending(userID, PendingNone)
}

// CurrentLesson возвращает текущий урок пользователя.
// Второй результат false означает, что уровень исчерпан и урока нет.
func (s *ProgressService) CurrentLesson(userID string) (*lessons.Lesson, bool, error) {
	profile, ok, err := s.users.Get(userID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, ErrNoProfile
	}

	lesson, found := lessons.Get(profile.CurrentLevel, profile.Language, profile.LessonIndex)
	if !found {
		return nil, false, nil
	}
	return lesson, true, nil
}

// StartTest снимает снимок вопросов текущего урока в новую сессию
// и переводит пользователя в состояние test_in_progress
func (s *ProgressService) StartTest(userID string) (*TestSession, error) {
	profile, ok, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoProfile
	}

	lesson, found := lessons.Get(profile.CurrentLevel, profile.Language, profile.LessonIndex)
	if !found || len(lesson.Test) == 0 {
		return nil, ErrNoQuestions
	}

	session := &TestSession{
		ID:           uuid.NewString(),
		Questions:    append([]lessons.QA(nil), lesson.Test...),
		CurrentIndex: 0,
		Correct:      0,
		StartedAt:    s.now(),
	}

	s.mu.Lock()
	s.sessions[userID] = session
	s.pending[userID] = PendingTest
	s.mu.Unlock()

	log.Printf("[Progress] Тест начат: user_id=%s, session=%s, вопросов=%d", userID, session.ID, len(session.Questions))
	return session, nil
}

// SubmitAnswer принимает ответ на текущий вопрос активной сессии.
// Сравнение: обрезанные пробелы, без учета регистра, только полное совпадение.
// На последнем вопросе сессия уничтожается; безошибочное прохождение
// начисляет бонус и сдвигает lesson_index, частичный результат не меняет профиль.
// Мьютекс удерживается на весь цикл чтения и мутации сессии: в webhook-режиме
// обработчики выполняются параллельно, и два ответа одного пользователя
// не должны гоняться за полями сессии.
func (s *ProgressService) SubmitAnswer(userID, answer string) (*AnswerResult, error) {
	s.mu.Lock()

	session, ok := s.sessions[userID]
	if !ok {
		delete(s.pending, userID)
		s.mu.Unlock()
		return nil, ErrNoSession
	}
	if s.now().Sub(session.StartedAt) > sessionTTL {
		log.Printf("[Progress] Сессия %s брошена и удалена: user_id=%s", session.ID, userID)
		delete(s.sessions, userID)
		delete(s.pending, userID)
		s.mu.Unlock()
		return nil, ErrNoSession
	}

	question := session.Questions[session.CurrentIndex]
	expected := strings.ToLower(strings.TrimSpace(question.Answer))
	got := strings.ToLower(strings.TrimSpace(answer))

	result := &AnswerResult{
		Expected: expected,
		Total:    len(session.Questions),
	}
	if got == expected {
		session.Correct++
		result.Correct = true
	}
	session.CurrentIndex++

	if session.CurrentIndex < len(session.Questions) {
		next := session.Questions[session.CurrentIndex]
		result.NextPrompt = next.Prompt
		result.NextNumber = session.CurrentIndex + 1
		s.mu.Unlock()
		return result, nil
	}

	// Сессия завершена
	result.Done = true
	result.Score = session.Correct
	result.Passed = session.Correct == len(session.Questions)

	delete(s.sessions, userID)
	delete(s.pending, userID)
	s.mu.Unlock()

	if result.Passed {
		if _, err := s.users.Update(userID, func(p *storage.Profile) {
			p.Points += lessonBonusPoints
			p.LessonIndex++
		}); err != nil {
			return nil, err
		}
	}

	log.Printf("[Progress] Тест завершен: user_id=%s, session=%s, результат=%d/%d", userID, session.ID, result.Score, result.Total)
	return result, nil
}

// ActiveSessions возвращает количество активных тестовых сессий
func (s *ProgressService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
