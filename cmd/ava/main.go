// Package main is the entry point for the ava CLI.
package main

import (
	"os"

	"github.com/runger/ava/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
