// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the skyfile binary: a
// nested [Command] tree with pflag flag parsing, tabwriter-formatted
// help, Levenshtein typo suggestions for commands and flags,
// categorized command errors, and shared output helpers (JSON mode,
// styled terminal notices, structured logging).
package cli
