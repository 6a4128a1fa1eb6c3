// Package jsonstore provides a JSON file-based implementation of SnapshotStore.
package jsonstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/bytedance/sonic"

	"github.com/runoshun/board/internal/domain"
)

// storeData represents the JSON file structure.
type storeData struct {
	Board domain.Snapshot `json:"board"`
	Meta  meta            `json:"meta"`
}

// meta contains store metadata.
type meta struct {
	Revision int64 `json:"revision"` // incremented on every write
}

// Store implements domain.SnapshotStore using a JSON file.
type Store struct {
	path     string
	lockPath string
}

// New creates a new Store for the given file path.
// The file does not need to exist until Initialize is called.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// View runs fn with the stored board under a shared lock.
func (s *Store) View(_ context.Context, fn func(*domain.Snapshot) error) error {
	return s.withLock(func(data *storeData) error {
		return fn(&data.Board)
	})
}

// Update runs fn under an exclusive lock and writes the board when fn succeeds.
func (s *Store) Update(_ context.Context, fn func(*domain.Snapshot) error) error {
	return s.withLockWrite(func(data *storeData) error {
		if err := fn(&data.Board); err != nil {
			return err
		}
		data.Meta.Revision++
		return nil
	})
}

// Revision returns the number of writes since the store was created.
func (s *Store) Revision() (int64, error) {
	var rev int64
	err := s.withLock(func(data *storeData) error {
		rev = data.Meta.Revision
		return nil
	})
	return rev, err
}

// Initialize creates an empty store file if it doesn't exist.
// Returns true if the file was created.
func (s *Store) Initialize(_ context.Context) (bool, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return false, fmt.Errorf("create directory: %w", err)
	}

	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return false, err
	}
	defer s.releaseLock(lock)

	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	}
	return true, s.write(&storeData{})
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes the result.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(data); err != nil {
		return err
	}

	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

func (s *Store) read() (*storeData, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotInitialized
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var data storeData
	if err := sonic.ConfigStd.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	return &data, nil
}

func (s *Store) write(data *storeData) error {
	if data.Board.Columns == nil {
		data.Board.Columns = []domain.Column{}
	}
	if data.Board.Tasks == nil {
		data.Board.Tasks = []domain.Task{}
	}
	content, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

var (
	_ domain.SnapshotStore    = (*Store)(nil)
	_ domain.StoreInitializer = (*Store)(nil)
)
