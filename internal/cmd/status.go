package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/ava/internal/config"
	"github.com/runger/ava/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ava status",
	Long: `Show the current status of ava, including:
- Picker status (serving/not running)
- Selection endpoint location
- Configuration file location
- History database location

Examples:
  ava status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, _ := config.Load() // Ignore error, use defaults
	if cfg == nil {
		cfg = config.Default()
	}

	fmt.Printf("%sava Status%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))

	socketPath := cfg.Client.SocketPath
	if socketPath == "" {
		socketPath = ipc.SocketPath()
	}

	fmt.Printf("\n%sPicker:%s\n", colorBold, colorReset)
	client := ipc.NewClient(socketPath, slog.New(slog.DiscardHandler))
	if client.IsReachable() {
		fmt.Printf("  Status:  %sserving%s\n", colorGreen, colorReset)
		if data, err := os.ReadFile(paths.PIDFile()); err == nil {
			fmt.Printf("  PID:     %s\n", strings.TrimSpace(string(data)))
		}
	} else if ipc.SocketExists(socketPath) {
		fmt.Printf("  Status:  %snot running%s (stale socket left behind)\n", colorDim, colorReset)
	} else {
		fmt.Printf("  Status:  %snot running%s\n", colorDim, colorReset)
	}
	fmt.Printf("  Socket:  %s\n", socketPath)

	fmt.Printf("\n%sConfiguration:%s\n", colorBold, colorReset)
	configFile := paths.ConfigFile()
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("  File:    %s\n", configFile)
	} else {
		fmt.Printf("  File:    %s (not found, using defaults)\n", configFile)
	}
	fmt.Printf("  Wake:    %q\n", cfg.Assistant.WakePhrase)

	fmt.Printf("\n%sHistory:%s\n", colorBold, colorReset)
	historyFile := paths.HistoryFile()
	if info, err := os.Stat(historyFile); err == nil {
		fmt.Printf("  File:    %s (%d bytes)\n", historyFile, info.Size())
	} else {
		fmt.Printf("  File:    %s (not created yet)\n", historyFile)
	}
	if !cfg.Assistant.HistoryEnabled {
		fmt.Printf("  Status:  %sdisabled%s\n", colorDim, colorReset)
	}

	return nil
}
