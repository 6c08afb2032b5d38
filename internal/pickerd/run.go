// Package pickerd runs the picker process: single-instance locking, the
// selection server, the lifecycle manager, and the TUI event loop.
package pickerd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/runger/ava/internal/config"
	"github.com/runger/ava/internal/ipc"
	"github.com/runger/ava/internal/lifecycle"
	"github.com/runger/ava/internal/picker"
)

// ErrAlreadyRunning is reported when another picker holds the
// single-instance lock.
var ErrAlreadyRunning = errors.New("picker already running")

// Run starts the picker process and blocks until the TUI exits. tty is
// the terminal the TUI renders on (stdin/stdout may be redirected).
func Run(cfg *config.Config, paths *config.Paths, tty *os.File) error {
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	logger, logClose, err := newLogger(paths, cfg.Picker.LogLevel)
	if err != nil {
		return err
	}
	defer logClose()

	lock := NewLockFile(paths.LockFile())
	if err := lock.Acquire(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer lock.Release()

	if err := writePIDFile(paths.PIDFile()); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	defer os.Remove(paths.PIDFile())

	mgr := lifecycle.New(cfg.DisplayWait(), logger)
	defer mgr.Close()

	socketPath := cfg.Picker.SocketPath
	if socketPath == "" {
		socketPath = ipc.SocketPath()
	}

	// Binding the endpoint is the one fatal startup failure.
	srv := ipc.NewServer(socketPath, mgr.Handle, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start selection server: %w", err)
	}
	defer srv.Stop()

	logger.Info("picker started", "pid", os.Getpid(), "socket", socketPath)

	// Color profile must come from the real tty; stdout may be a pipe.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	prog := tea.NewProgram(picker.NewModel(mgr),
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	)

	// The UI event loop consumes requests from the manager's channel.
	go func() {
		for {
			select {
			case <-mgr.Done():
				return
			case p := <-mgr.Requests():
				prog.Send(picker.RequestMsg{Pending: p})
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		logger.Info("signal received, shutting down", "signal", sig.String())
		prog.Quit()
	}()

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("picker stopped")
	return nil
}

// writePIDFile writes the current process ID to the PID file.
func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o600)
}

// newLogger opens the picker log file. The TUI owns the terminal, so
// stderr is not an option while running.
func newLogger(paths *config.Paths, level string) (*slog.Logger, func(), error) {
	f, err := os.OpenFile(paths.PickerLogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(handler), func() { f.Close() }, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
