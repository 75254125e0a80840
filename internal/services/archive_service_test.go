package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krishtopa13/planet-learn-languages/internal/config"
	"github.com/Krishtopa13/planet-learn-languages/internal/storage"
)

type fakeDocumentSender struct {
	mu       sync.Mutex
	chatIDs  []int64
	paths    []string
	captions []string
	// Имена файлов внутри архива на момент отправки
	entries [][]string
}

func (f *fakeDocumentSender) SendDocument(chatID int64, filePath, caption string) error {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	var names []string
	for _, file := range reader.File {
		names = append(names, file.Name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatIDs = append(f.chatIDs, chatID)
	f.paths = append(f.paths, filePath)
	f.captions = append(f.captions, caption)
	f.entries = append(f.entries, names)
	return nil
}

func (f *fakeDocumentSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

func TestArchiveRunOnce(t *testing.T) {
	t.Chdir(t.TempDir())

	users := storage.NewUserStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, users.Init())
	for _, id := range []string{"1", "2", "3"} {
		_, _, err := users.Create(id, time.Now())
		require.NoError(t, err)
	}

	queue := storage.NewHelpQueueStore(filepath.Join(t.TempDir(), "help_queue.json"))
	require.NoError(t, queue.Init())
	_, err := queue.Enqueue("2")
	require.NoError(t, err)

	admin := NewAdminService(&config.Config{Admin: config.AdminConfig{ChatID: 42}})
	sender := &fakeDocumentSender{}
	svc := NewArchiveService(users, queue, admin, sender, time.Hour)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 30, 14, 7, 0, 0, time.UTC)
	}

	require.NoError(t, svc.RunOnce())

	require.Len(t, sender.paths, 1)
	assert.Equal(t, int64(42), sender.chatIDs[0])
	assert.Equal(t, "backup_20260830_1407_users_3.zip", sender.paths[0])
	assert.Equal(t, "🗄 Резервная копия: 3 пользователей", sender.captions[0])
	assert.ElementsMatch(t, []string{"users.json", "help_queue.json"}, sender.entries[0])

	// Локальная копия архива удаляется после отправки
	_, err = os.Stat(sender.paths[0])
	assert.True(t, os.IsNotExist(err))

	// Холостой цикл чтения-записи не меняет содержимое хранилищ
	loaded, err := users.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
	q, err := queue.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, q)
}

func TestArchiveRunOnceCorruptedStore(t *testing.T) {
	t.Chdir(t.TempDir())

	usersPath := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(usersPath, []byte("{broken"), 0o644))
	users := storage.NewUserStore(usersPath)

	queue := storage.NewHelpQueueStore(filepath.Join(t.TempDir(), "help_queue.json"))
	require.NoError(t, queue.Init())

	admin := NewAdminService(&config.Config{Admin: config.AdminConfig{ChatID: 42}})
	sender := &fakeDocumentSender{}
	svc := NewArchiveService(users, queue, admin, sender, time.Hour)

	assert.Error(t, svc.RunOnce())
	assert.Empty(t, sender.paths)
}

func TestArchiveStartStop(t *testing.T) {
	t.Chdir(t.TempDir())

	users := storage.NewUserStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, users.Init())
	queue := storage.NewHelpQueueStore(filepath.Join(t.TempDir(), "help_queue.json"))
	require.NoError(t, queue.Init())

	admin := NewAdminService(&config.Config{Admin: config.AdminConfig{ChatID: 42}})
	svc := NewArchiveService(users, queue, admin, &fakeDocumentSender{}, time.Hour)

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())
	assert.Error(t, svc.Start())

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())
	assert.Error(t, svc.Stop())
}

func TestArchiveRunsImmediatelyOnStart(t *testing.T) {
	t.Chdir(t.TempDir())

	users := storage.NewUserStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, users.Init())
	queue := storage.NewHelpQueueStore(filepath.Join(t.TempDir(), "help_queue.json"))
	require.NoError(t, queue.Init())

	admin := NewAdminService(&config.Config{Admin: config.AdminConfig{ChatID: 42}})
	sender := &fakeDocumentSender{}
	svc := NewArchiveService(users, queue, admin, sender, time.Hour)

	require.NoError(t, svc.Start())
	defer svc.Stop()

	// Первый архив не ждет первого тика
	require.Eventually(t, func() bool {
		return sender.sentCount() == 1
	}, 5*time.Second, 10*time.Millisecond)
}
