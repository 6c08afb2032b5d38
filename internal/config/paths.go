// Package config provides configuration management for ava.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Paths holds all the path configurations for ava.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/ava)
	ConfigDir string

	// DataDir is the directory for data files (~/.local/share/ava)
	DataDir string

	// CacheDir is the directory for cache files (~/.cache/ava)
	CacheDir string

	// RuntimeDir is the directory for runtime files like sockets, PID
	// files and locks. Keyed to the current user so two users on the same
	// host never collide.
	RuntimeDir string
}

// DefaultPaths returns the default paths based on the XDG Base Directory
// spec. On Windows, it uses %APPDATA% instead.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}

		return &Paths{
			ConfigDir:  filepath.Join(appData, "ava"),
			DataDir:    filepath.Join(localAppData, "ava"),
			CacheDir:   filepath.Join(localAppData, "ava", "cache"),
			RuntimeDir: filepath.Join(localAppData, "ava", "run"),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		cacheHome = filepath.Join(home, ".cache")
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		// XDG_RUNTIME_DIR is already per-user; the /tmp fallback must be
		// keyed by uid explicitly.
		runtimeDir = filepath.Join(os.TempDir(), "ava-"+strconv.Itoa(os.Getuid()))
	} else {
		runtimeDir = filepath.Join(runtimeDir, "ava")
	}

	return &Paths{
		ConfigDir:  filepath.Join(configHome, "ava"),
		DataDir:    filepath.Join(dataHome, "ava"),
		CacheDir:   filepath.Join(cacheHome, "ava"),
		RuntimeDir: runtimeDir,
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// HistoryFile returns the path to the selection-history SQLite database.
func (p *Paths) HistoryFile() string {
	return filepath.Join(p.DataDir, "history.db")
}

// SocketFile returns the path to the picker's Unix domain socket.
func (p *Paths) SocketFile() string {
	return filepath.Join(p.RuntimeDir, "picker.sock")
}

// PIDFile returns the path to the picker PID file.
func (p *Paths) PIDFile() string {
	return filepath.Join(p.RuntimeDir, "picker.pid")
}

// LockFile returns the path to the picker's single-instance lock file.
func (p *Paths) LockFile() string {
	return filepath.Join(p.RuntimeDir, "picker.lock")
}

// LogDir returns the path to the log directory.
func (p *Paths) LogDir() string {
	return filepath.Join(p.DataDir, "logs")
}

// PickerLogFile returns the path to the picker log file. The picker owns
// the terminal, so it cannot log to stderr.
func (p *Paths) PickerLogFile() string {
	return filepath.Join(p.LogDir(), "picker.log")
}

// EnsureDirectories creates all necessary directories.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.ConfigDir,
		p.DataDir,
		p.CacheDir,
		p.RuntimeDir,
		p.LogDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
