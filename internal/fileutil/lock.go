package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Lock is an exclusive flock(2) on a sidecar file. It guards read-modify-write
// cycles on a store file when two tutoradmin processes share a config dir.
type Lock struct {
	path string
	file *os.File
}

// NewLock returns a Lock for target. The lock file is target + ".lock".
func NewLock(target string) *Lock {
	return &Lock{path: target + ".lock"}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Lock blocks until the lock is held, creating the lock file if needed.
func (l *Lock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock: %w", err)
	}
	l.file = f
	return nil
}

// Unlock releases the lock. Calling it without holding the lock is a no-op.
func (l *Lock) Unlock() error {
	if l.file == nil {
		return nil
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		l.file = nil
		return fmt.Errorf("funlock: %w", err)
	}

	err := l.file.Close()
	l.file = nil
	return err
}
