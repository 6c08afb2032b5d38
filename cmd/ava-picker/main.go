// Package main is the entry point for the ava-picker TUI process.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/runger/ava/internal/config"
	"github.com/runger/ava/internal/ipc"
	"github.com/runger/ava/internal/pickerd"
)

// Version information (set via ldflags during build).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Exit codes.
//
//	0 = clean shutdown
//	1 = runtime error
//	2 = cannot run here (no TTY, narrow terminal, another picker running)
const (
	exitSuccess     = 0
	exitError       = 1
	exitUnavailable = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the main entry point, returning an exit code. It is separated
// from main() to enable testing.
func run(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitSuccess
		}
		fmt.Fprintf(os.Stderr, "ava-picker: %v\n", err)
		return exitError
	}
	if opts.version {
		printVersion()
		return exitSuccess
	}

	// Preflight: the picker is a full-screen TUI and needs a real terminal.
	if err := checkTTY(); err != nil {
		fmt.Fprintf(os.Stderr, "ava-picker: %v\n", err)
		return exitUnavailable
	}
	if err := checkTERM(); err != nil {
		fmt.Fprintf(os.Stderr, "ava-picker: %v\n", err)
		return exitUnavailable
	}
	if err := checkTermWidth(); err != nil {
		fmt.Fprintf(os.Stderr, "ava-picker: %v\n", err)
		return exitUnavailable
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ava-picker: failed to load config: %v\n", err)
		return exitError
	}
	if opts.socket != "" {
		cfg.Picker.SocketPath = opts.socket
	}
	if cfg.Picker.SocketPath == "" {
		cfg.Picker.SocketPath = ipc.SocketPath()
	}

	tty, closeTTY, err := openTTY()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ava-picker: %v\n", err)
		return exitUnavailable
	}
	defer closeTTY()

	if err := pickerd.Run(cfg, config.DefaultPaths(), tty); err != nil {
		fmt.Fprintf(os.Stderr, "ava-picker: %v\n", err)
		if errors.Is(err, pickerd.ErrAlreadyRunning) {
			return exitUnavailable
		}
		return exitError
	}
	return exitSuccess
}

type pickerOpts struct {
	socket  string
	version bool
}

func parseFlags(args []string) (*pickerOpts, error) {
	fs := flag.NewFlagSet("ava-picker", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := &pickerOpts{}
	fs.StringVar(&opts.socket, "socket", "", "selection endpoint to serve (defaults to the per-user runtime path)")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ava-picker [flags]\n\nServes selection requests from the assistant in a terminal UI.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return opts, nil
}

func printVersion() {
	fmt.Printf("ava-picker %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
}
