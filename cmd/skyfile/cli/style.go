// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
)

// stderr styles its output for the actual stderr stream: colors are
// used when it is a terminal and dropped when piped.
var stderr = termenv.NewOutput(os.Stderr)

// Warnf prints a styled warning line to stderr. Used for advisory
// conditions that do not stop the command, like a non-recommended
// checksum algorithm or a CID mismatch.
func Warnf(format string, args ...any) {
	prefix := stderr.String("warning:").Foreground(termenv.ANSIYellow).Bold()
	fmt.Fprintf(os.Stderr, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Noticef prints a styled informational line to stderr. Used for
// follow-up information after an action, like the asynchronous blob
// garbage-collection notice after a delete.
func Noticef(format string, args ...any) {
	prefix := stderr.String("note:").Foreground(termenv.ANSICyan)
	fmt.Fprintf(os.Stderr, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Successf prints a styled success line to stderr, keeping stdout
// clean for machine-readable output.
func Successf(format string, args ...any) {
	prefix := stderr.String("ok:").Foreground(termenv.ANSIGreen)
	fmt.Fprintf(os.Stderr, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}
