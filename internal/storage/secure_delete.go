package storage

import (
	"crypto/rand"
	"os"
	"sync"

	apperrors "github.com/allisson/fileguard/internal/errors"
)

// overwritePasses is the number of random-data passes applied before unlink.
const overwritePasses = 3

// SecureDeleter destroys local files by overwriting their content with random
// data before removal. Operations on the same path are serialized: scheduled
// cleanup and manual purges may target the same artifact concurrently, and a
// double overwrite of a half-deleted file must not happen.
type SecureDeleter struct {
	mu    sync.Mutex
	paths map[string]*pathLock
}

// pathLock is a reference-counted per-path mutex, dropped from the map once
// the last holder releases it.
type pathLock struct {
	mu   sync.Mutex
	refs int
}

// NewSecureDeleter creates a SecureDeleter.
func NewSecureDeleter() *SecureDeleter {
	return &SecureDeleter{paths: make(map[string]*pathLock)}
}

func (s *SecureDeleter) acquire(path string) *pathLock {
	s.mu.Lock()
	lock, ok := s.paths[path]
	if !ok {
		lock = &pathLock{}
		s.paths[path] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (s *SecureDeleter) release(path string, lock *pathLock) {
	lock.mu.Unlock()

	s.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.paths, path)
	}
	s.mu.Unlock()
}

// Delete overwrites the file at path with random data and removes it.
// Returns false without error when the file does not exist.
func (s *SecureDeleter) Delete(path string) (bool, error) {
	lock := s.acquire(path)
	defer s.release(path, lock)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Wrap(err, "failed to stat file for secure delete")
	}
	if info.IsDir() {
		return false, apperrors.Wrap(apperrors.ErrInvalidInput, "secure delete target is a directory")
	}

	if err := overwrite(path, info.Size()); err != nil {
		return false, err
	}

	if err := os.Remove(path); err != nil {
		return false, apperrors.Wrap(err, "failed to remove file after overwrite")
	}
	return true, nil
}

// overwrite rewrites the file content with random bytes overwritePasses times,
// syncing after each pass.
func overwrite(path string, size int64) error {
	if size == 0 {
		return nil
	}

	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return apperrors.Wrap(err, "failed to open file for overwrite")
	}
	defer func() {
		_ = file.Close()
	}()

	noise := make([]byte, size)
	for pass := 0; pass < overwritePasses; pass++ {
		if _, err := rand.Read(noise); err != nil {
			return apperrors.Wrap(err, "failed to generate overwrite data")
		}
		if _, err := file.WriteAt(noise, 0); err != nil {
			return apperrors.Wrap(err, "failed to overwrite file")
		}
		if err := file.Sync(); err != nil {
			return apperrors.Wrap(err, "failed to sync overwrite pass")
		}
	}

	return nil
}
