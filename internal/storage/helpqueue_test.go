package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHelpQueue(t *testing.T) *HelpQueueStore {
	t.Helper()
	store := NewHelpQueueStore(filepath.Join(t.TempDir(), "help_queue.json"))
	require.NoError(t, store.Init())
	return store
}

func TestHelpQueueInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "help_queue.json")
	store := NewHelpQueueStore(path)

	require.NoError(t, store.Init())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestHelpQueueEnqueue(t *testing.T) {
	store := newTestHelpQueue(t)

	added, err := store.Enqueue("101")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Enqueue("202")
	require.NoError(t, err)
	assert.True(t, added)

	// Повторная заявка не добавляется и не меняет порядок
	added, err = store.Enqueue("101")
	require.NoError(t, err)
	assert.False(t, added)

	queue, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"101", "202"}, queue)

	length, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, length)
}

func TestHelpQueueLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		store := NewHelpQueueStore(filepath.Join(t.TempDir(), "help_queue.json"))
		_, err := store.Load()
		assert.Error(t, err)
	})

	t.Run("corrupted json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "help_queue.json")
		require.NoError(t, os.WriteFile(path, []byte("[broken"), 0o644))

		store := NewHelpQueueStore(path)
		_, err := store.Load()
		assert.Error(t, err)
	})
}
