package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/ava/internal/assistant"
	"github.com/runger/ava/internal/config"
	"github.com/runger/ava/internal/ipc"
	"github.com/runger/ava/internal/storage"
)

var runLogLevel string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the assistant loop",
	Long: `Start the assistant and read utterances from stdin.

Each line is treated as one utterance. Say the wake phrase to open a
command window; ambiguous commands are resolved in a running ava-picker,
or by a spoken (printed) dialogue when no picker is reachable.

Examples:
  ava run
  ava run --log-level=debug`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(runLogLevel),
	}))

	socketPath := cfg.Client.SocketPath
	if socketPath == "" {
		socketPath = ipc.SocketPath()
	}
	client := ipc.NewClient(socketPath, logger)
	client.SetProbeTimeout(cfg.ConnectTimeout())

	var store *storage.Store
	if cfg.Assistant.HistoryEnabled {
		store, err = storage.Open(paths.HistoryFile())
		if err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			defer store.Close()
			go pruneHistory(store, logger)
		}
	}

	a := assistant.New(assistant.Options{
		Config:   cfg,
		Searcher: newCatalogSearcher(),
		Speaker:  &consoleSpeaker{out: os.Stdout},
		Client:   client,
		Store:    store,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	fmt.Println(assistant.Greeting(cfg.Assistant.WakePhrase))
	err = a.Run(ctx, os.Stdin)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// historyRetention is how long selection rows are kept.
const historyRetention = 90 * 24 * time.Hour

func pruneHistory(store *storage.Store, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := store.Prune(ctx, historyRetention)
	if err != nil {
		logger.Debug("history prune failed", "error", err)
		return
	}
	if n > 0 {
		logger.Debug("pruned history", "rows", n)
	}
}

// consoleSpeaker stands in for the speech synthesizer: it prints what
// would be spoken.
type consoleSpeaker struct {
	out io.Writer
}

func (s *consoleSpeaker) Speak(text string) error {
	_, err := fmt.Fprintf(s.out, "%sava:%s %s\n", colorBold, colorReset, text)
	return err
}

func logLevel(s string) slog.Level {
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
