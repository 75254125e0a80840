package services

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krishtopa13/planet-learn-languages/internal/lessons"
	"github.com/Krishtopa13/planet-learn-languages/internal/storage"
)

func newTestProgress(t *testing.T) (*ProgressService, *storage.UserStore) {
	t.Helper()
	store := storage.NewUserStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, store.Init())
	return NewProgressService(store), store
}

func createUser(t *testing.T, store *storage.UserStore, userID string) {
	t.Helper()
	_, created, err := store.Create(userID, time.Now())
	require.NoError(t, err)
	require.True(t, created)
}

func TestPendingStateLifecycle(t *testing.T) {
	svc, _ := newTestProgress(t)

	assert.Equal(t, PendingNone, svc.Pending("7"))

	svc.SetPending("7", PendingName)
	assert.Equal(t, PendingName, svc.Pending("7"))

	svc.SetPending("7", PendingGoal)
	assert.Equal(t, PendingGoal, svc.Pending("7"))

	svc.ClearPending("7")
	assert.Equal(t, PendingNone, svc.Pending("7"))
}

func TestCurrentLesson(t *testing.T) {
	svc, store := newTestProgress(t)
	createUser(t, store, "1")

	lesson, ok, err := svc.CurrentLesson("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, lesson.Text, "Greetings")

	// Индекс за последним уроком означает, что уровень исчерпан
	_, err = store.Update("1", func(u *storage.Profile) {
		u.LessonIndex = lessons.Count("A1", "en")
	})
	require.NoError(t, err)

	lesson, ok, err = svc.CurrentLesson("1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, lesson)
}

func TestCurrentLessonNoProfile(t *testing.T) {
	svc, _ := newTestProgress(t)

	_, _, err := svc.CurrentLesson("99")
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestStartTestSnapshotsQuestions(t *testing.T) {
	svc, store := newTestProgress(t)
	createUser(t, store, "1")

	session, err := svc.StartTest("1")
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Len(t, session.Questions, 2)
	assert.Equal(t, 0, session.CurrentIndex)
	assert.Equal(t, PendingTest, svc.Pending("1"))
	assert.Equal(t, 1, svc.ActiveSessions())
}

func TestStartTestNoQuestions(t *testing.T) {
	svc, store := newTestProgress(t)
	createUser(t, store, "1")

	// Для исчерпанного уровня урока нет, значит и вопросов нет
	_, err := store.Update("1", func(u *storage.Profile) {
		u.LessonIndex = lessons.Count("A1", "en")
	})
	require.NoError(t, err)

	_, err = svc.StartTest("1")
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestSubmitAnswerPerfectRunAdvancesLesson(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
	}{
		{name: "exact answers", answers: []string{"hello", "I'm fine, thank you"}},
		{name: "case insensitive", answers: []string{"HELLO", "i'm fine, THANK you"}},
		{name: "surrounding whitespace", answers: []string{"  hello  ", "\tI'm fine, thank you "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestProgress(t)
			createUser(t, store, "1")

			_, err := svc.StartTest("1")
			require.NoError(t, err)

			first, err := svc.SubmitAnswer("1", tt.answers[0])
			require.NoError(t, err)
			assert.True(t, first.Correct)
			assert.False(t, first.Done)
			assert.Equal(t, 2, first.NextNumber)
			assert.NotEmpty(t, first.NextPrompt)

			second, err := svc.SubmitAnswer("1", tt.answers[1])
			require.NoError(t, err)
			assert.True(t, second.Correct)
			assert.True(t, second.Done)
			assert.True(t, second.Passed)
			assert.Equal(t, 2, second.Score)
			assert.Equal(t, 2, second.Total)

			profile, ok, err := store.Get("1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 10, profile.Points)
			assert.Equal(t, 1, profile.LessonIndex)

			assert.Equal(t, PendingNone, svc.Pending("1"))
			assert.Equal(t, 0, svc.ActiveSessions())
		})
	}
}

func TestSubmitAnswerSingleMissFailsLesson(t *testing.T) {
	svc, store := newTestProgress(t)
	createUser(t, store, "1")

	_, err := svc.StartTest("1")
	require.NoError(t, err)

	first, err := svc.SubmitAnswer("1", "goodbye")
	require.NoError(t, err)
	assert.False(t, first.Correct)
	assert.Equal(t, "hello", first.Expected)

	second, err := svc.SubmitAnswer("1", "I'm fine, thank you")
	require.NoError(t, err)
	assert.True(t, second.Correct)
	assert.True(t, second.Done)
	assert.False(t, second.Passed)
	assert.Equal(t, 1, second.Score)
	assert.Equal(t, 2, second.Total)

	// Частичный результат не меняет профиль
	profile, ok, err := store.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, profile.Points)
	assert.Equal(t, 0, profile.LessonIndex)
}

func TestSubmitAnswerWithoutSession(t *testing.T) {
	svc, store := newTestProgress(t)
	createUser(t, store, "1")

	_, err := svc.SubmitAnswer("1", "hello")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSubmitAnswerExpiredSession(t *testing.T) {
	svc, store := newTestProgress(t)
	createUser(t, store, "1")

	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return started }

	_, err := svc.StartTest("1")
	require.NoError(t, err)

	// Спустя час с лишним сессия считается брошенной
	svc.now = func() time.Time { return started.Add(sessionTTL + time.Minute) }

	_, err = svc.SubmitAnswer("1", "hello")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, PendingNone, svc.Pending("1"))
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestSubmitAnswerConcurrentSubmissions(t *testing.T) {
	svc, store := newTestProgress(t)
	createUser(t, store, "1")

	_, err := svc.StartTest("1")
	require.NoError(t, err)

	// В webhook-режиме ответы одного пользователя приходят параллельно.
	// Сессия из двух вопросов должна принять ровно два ответа, остальные
	// получают ErrNoSession; поля сессии мутируются только под мьютексом.
	type outcome struct {
		result *AnswerResult
		err    error
	}
	const workers = 8
	outcomes := make(chan outcome, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.SubmitAnswer("1", "hello")
			outcomes <- outcome{result: result, err: err}
		}()
	}
	wg.Wait()
	close(outcomes)

	var accepted, doneCount int
	for o := range outcomes {
		if o.err != nil {
			assert.ErrorIs(t, o.err, ErrNoSession)
			continue
		}
		accepted++
		if o.result.Done {
			doneCount++
			// Первый "hello" верен, второй не совпадает со вторым ответом
			assert.False(t, o.result.Passed)
			assert.Equal(t, 1, o.result.Score)
			assert.Equal(t, 2, o.result.Total)
		}
	}
	assert.Equal(t, 2, accepted)
	assert.Equal(t, 1, doneCount)
	assert.Equal(t, 0, svc.ActiveSessions())
	assert.Equal(t, PendingNone, svc.Pending("1"))

	profile, ok, err := store.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, profile.Points)
	assert.Equal(t, 0, profile.LessonIndex)
}

func TestStartTestReplacesPreviousSession(t *testing.T) {
	svc, store := newTestProgress(t)
	createUser(t, store, "1")

	first, err := svc.StartTest("1")
	require.NoError(t, err)

	second, err := svc.StartTest("1")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, svc.ActiveSessions())
}
