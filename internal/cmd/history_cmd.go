package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/ava/internal/config"
	"github.com/runger/ava/internal/storage"
)

var (
	historyLimit   int
	historySession string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent selections",
	Long: `Show recent selections from the ava history database.

Each row is one resolved choice: what was asked, what was picked, and
when. Use --session to filter to a single assistant session.

Examples:
  ava history              # Show last 20 selections
  ava history --limit=50   # Show last 50 selections
  ava history --session=<id>`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of selections to show")
	historyCmd.Flags().StringVar(&historySession, "session", "", "Filter by session ID")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()

	limit := historyLimit
	if !cmd.Flags().Changed("limit") {
		if cfg, err := config.Load(); err == nil {
			limit = cfg.Assistant.HistoryMaxListRows
		}
	}

	store, err := storage.Open(paths.HistoryFile())
	if err != nil {
		fmt.Printf("No history available. Database not found at: %s\n", paths.HistoryFile())
		return nil
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	recs, err := store.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	shown := 0
	for _, rec := range recs {
		if historySession != "" && rec.SessionID != historySession {
			continue
		}
		chosen := rec.ItemText
		if rec.ChildText != "" {
			chosen = rec.ChildText + " (" + rec.ItemText + ")"
		}
		fmt.Printf("%s%s%s  %s%-10s%s %s\n",
			colorDim, rec.ChosenAt.Local().Format("2006-01-02 15:04"), colorReset,
			colorGreen, rec.ItemKind, colorReset,
			chosen)
		shown++
	}
	if shown == 0 {
		fmt.Println("No selections recorded yet.")
	}
	return nil
}
