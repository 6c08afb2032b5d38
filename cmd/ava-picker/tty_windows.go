//go:build windows

package main

import (
	"fmt"
	"os"
	"strconv"
)

// openTTY returns the console. Windows has no /dev/tty; the Bubble Tea
// runtime handles console modes itself, and stdout stays open.
func openTTY() (*os.File, func(), error) {
	return os.Stdout, func() {}, nil
}

func checkTTY() error {
	return nil
}

func checkTERM() error {
	if os.Getenv("TERM") == "dumb" {
		return fmt.Errorf("TERM=dumb is not supported")
	}
	return nil
}

// checkTermWidth falls back to $COLUMNS; the console API is not worth a
// preflight dependency here and the TUI adapts to resize events anyway.
func checkTermWidth() error {
	cols := os.Getenv("COLUMNS")
	if cols == "" {
		return nil
	}
	n, err := strconv.Atoi(cols)
	if err != nil {
		return nil
	}
	if n < 20 {
		return fmt.Errorf("terminal too narrow (%d columns, need at least 20)", n)
	}
	return nil
}
