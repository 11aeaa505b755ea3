package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/N1nj4lxl/Modly/cmd/modly/tui"
	"github.com/N1nj4lxl/Modly/pkg/modly/engine"
)

// signalContext returns a context canceled on SIGINT or SIGTERM, and a
// function reporting whether that happened.
func signalContext() (context.Context, context.CancelFunc, func() bool) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	interrupted := make(chan struct{})
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted, stopping after the current file...")
			close(interrupted)
			cancel()
		case <-ctx.Done():
		}
	}()

	stop := func() {
		signal.Stop(sigChan)
		cancel()
	}
	wasInterrupted := func() bool {
		select {
		case <-interrupted:
			return true
		default:
			return false
		}
	}
	return ctx, stop, wasInterrupted
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// useProgressView reports whether phases should draw the progress view.
func useProgressView() bool {
	if settings().GetBool("no_progress") || getQuiet() {
		return false
	}
	return isTerminal(os.Stderr)
}

// withProgress runs work behind the progress view when stderr is a
// terminal, and with plain status lines otherwise.
func withProgress(ctx context.Context, title, root string, work tui.Work) error {
	if useProgressView() {
		if err := initTUILogging(); err != nil {
			return fmt.Errorf("failed to initialize TUI logging: %w", err)
		}
		defer func() {
			if err := restoreLogging(); err != nil {
				logger.Warn("restoring console logging", "error", err)
			}
		}()
		return tui.RunProgress(ctx, os.Stderr, title, root, work)
	}
	return work(ctx, plainProgress())
}

// plainProgress prints one line per phase change in verbose mode.
func plainProgress() func(engine.Progress) {
	var last engine.Phase
	return func(p engine.Progress) {
		if p.Phase == last {
			return
		}
		last = p.Phase
		if p.Total > 0 {
			printVerbose("%s: %d items", p.Phase, p.Total)
		} else {
			printVerbose("%s...", p.Phase)
		}
	}
}

// confirm asks a yes/no question on the terminal. Without a terminal it
// answers no, so scripted runs must pass --yes.
func confirm(title string, lines []string, action string) (bool, error) {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stderr) {
		return false, nil
	}
	return tui.Confirm(os.Stdin, os.Stderr, title, lines, action)
}
