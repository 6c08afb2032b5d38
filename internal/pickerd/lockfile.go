//go:build !windows

package pickerd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LockFile manages an exclusive lock file so only one picker serves the
// per-user endpoint. It uses flock(2) with LOCK_EX|LOCK_NB.
type LockFile struct {
	file *os.File
	path string
}

// NewLockFile creates a new LockFile at the specified path. The lock is
// not acquired until Acquire is called.
func NewLockFile(path string) *LockFile {
	return &LockFile{path: path}
}

// Acquire attempts to acquire an exclusive non-blocking lock. If the
// lock is held by a dead process, the stale file is removed and the
// acquisition retried once. On success the current PID is written to the
// lock file.
func (l *LockFile) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		if !errors.Is(err, syscall.EWOULDBLOCK) && !errors.Is(err, syscall.EAGAIN) {
			f.Close()
			return fmt.Errorf("acquire lock on %s: %w", l.path, err)
		}

		stalePID := readPIDFromFile(f)
		f.Close()

		if stalePID > 0 && !isProcessAlive(stalePID) {
			os.Remove(l.path)
			return l.retryAcquire()
		}
		if stalePID > 0 {
			return fmt.Errorf("%w (PID %d), lock file: %s", ErrAlreadyRunning, stalePID, l.path)
		}
		return fmt.Errorf("%w, lock file: %s", ErrAlreadyRunning, l.path)
	}

	if err := writePID(f); err != nil {
		f.Close()
		return err
	}
	l.file = f
	return nil
}

// retryAcquire performs a single retry after removing a stale lock file.
func (l *LockFile) retryAcquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file on retry: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return fmt.Errorf("acquire lock on retry: %w", err)
	}
	if err := writePID(f); err != nil {
		f.Close()
		return err
	}
	l.file = f
	return nil
}

// Release releases the lock and removes the lock file. A no-op when the
// lock was never acquired.
func (l *LockFile) Release() error {
	if l.file == nil {
		return nil
	}

	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}
	l.file = nil

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *LockFile) Path() string {
	return l.path
}

func writePID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("write PID to lock file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync lock file: %w", err)
	}
	return nil
}

func readPIDFromFile(f *os.File) int {
	if _, err := f.Seek(0, 0); err != nil {
		return 0
	}
	buf := make([]byte, 32)
	n, err := f.Read(buf)
	if err != nil || n == 0 {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}
	return pid
}

// isProcessAlive checks if a process with the given PID is running.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return process.Signal(syscall.Signal(0)) == nil
}
