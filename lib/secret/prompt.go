// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Prompt writes message to stderr and reads a secret from the terminal
// with echo disabled. The raw line is moved into a protected Buffer and
// the intermediate copy is zeroed. Fails if stdin is not a terminal so
// that scripts do not silently hang waiting for input.
func Prompt(message string) (*Buffer, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("stdin is not a terminal; pass the secret via a file or environment variable")
	}

	fmt.Fprint(os.Stderr, message)
	line, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		Zero(line)
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}

	return NewFromBytes(line)
}
