// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/cmd/skyfile/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like a declined
		// confirmation) return an ExitError with the desired exit
		// code. Don't print a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The logger exists before flag parsing, so --debug is detected by
	// scanning the raw arguments.
	logger := cli.NewCommandLogger(slices.Contains(os.Args[1:], "--debug"))

	return commands.Root().Execute(ctx, os.Args[1:], logger)
}
