package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSecureDeleter_Delete(t *testing.T) {
	deleter := NewSecureDeleter()

	t.Run("removes existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secret.bin")
		require.NoError(t, os.WriteFile(path, []byte("sensitive plaintext"), 0o600))

		deleted, err := deleter.Delete(path)
		require.NoError(t, err)
		assert.True(t, deleted)
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing file reports false without error", func(t *testing.T) {
		deleted, err := deleter.Delete(filepath.Join(t.TempDir(), "missing"))
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		deleted, err := deleter.Delete(path)
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("directory is rejected", func(t *testing.T) {
		deleted, err := deleter.Delete(t.TempDir())
		assert.False(t, deleted)
		assert.Error(t, err)
	})
}

func TestSecureDeleter_ConcurrentSamePath(t *testing.T) {
	defer goleak.VerifyNone(t)

	deleter := NewSecureDeleter()
	path := filepath.Join(t.TempDir(), "contested.bin")
	require.NoError(t, os.WriteFile(path, []byte("sensitive"), 0o600))

	const workers = 8
	results := make([]bool, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = deleter.Delete(path)
		}(i)
	}
	wg.Wait()

	// Exactly one caller performs the destruction, the rest see a missing file.
	var deletions int
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		if results[i] {
			deletions++
		}
	}
	assert.Equal(t, 1, deletions)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
