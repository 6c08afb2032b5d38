//go:build !windows

package pickerd

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockFileAcquireWritesPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picker.lock")
	l := NewLockFile(path)

	require.NoError(t, l.Acquire())
	defer l.Release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestLockFileSecondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picker.lock")

	first := NewLockFile(path)
	require.NoError(t, first.Acquire())
	defer first.Release()

	second := NewLockFile(path)
	err := second.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyRunning), "got: %v", err)
}

func TestLockFileReleaseRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picker.lock")
	l := NewLockFile(path)

	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Releasing twice is a no-op.
	require.NoError(t, l.Release())
}

func TestLockFileReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picker.lock")
	l := NewLockFile(path)

	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())
	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())
}

func TestLockFileCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "picker.lock")
	l := NewLockFile(path)

	require.NoError(t, l.Acquire())
	defer l.Release()

	_, err := os.Stat(path)
	require.NoError(t, err)
}
