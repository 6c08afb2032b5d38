// Package cmd implements the ava CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ava",
	Short: "a voice assistant that lets you pick",
	Long: `ava - a voice assistant with a selection protocol
  - say "hey ava" and a command; ambiguous results open a picker
  - run ava-picker in another terminal for keyboard selection`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
