// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors so callers (and scripts
// inspecting --json output) can distinguish failure modes without
// parsing error message text.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// a record that fails schema validation, a bad flag value, wrong
	// argument count. Fix the input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced resource does not exist:
	// an unknown record key or blob. Retrying with the same parameters
	// will not help.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryAuth indicates bad credentials or an expired session.
	CategoryAuth ErrorCategory = "auth"

	// CategoryFileSystem indicates a local file is missing or
	// unreadable. Detected before any network call is made.
	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryTransient indicates a temporary failure: network error,
	// timeout, rate limit. Backing off and retrying may succeed.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal indicates an unexpected error: bugs, parse
	// errors on data the server produced. Report rather than retry.
	CategoryInternal ErrorCategory = "internal"
)

// CommandError is a categorized error returned by CLI commands. It
// wraps an inner error, preserving the full error chain for debugging
// while adding category metadata. Use the category-specific
// constructors (Validation, NotFound, etc.) rather than constructing
// CommandError directly.
type CommandError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error
}

// Error returns the underlying error message. The category is not
// included in the string — it is metadata, not prose.
func (e *CommandError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error, allowing errors.Is and
// errors.As to walk the full chain through the CommandError wrapper.
func (e *CommandError) Unwrap() error { return e.Err }

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Auth creates an auth error: bad credentials or an expired session.
func Auth(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryAuth, Err: fmt.Errorf(format, args...)}
}

// FileSystem creates a filesystem error: a local file is missing or unreadable.
func FileSystem(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryFileSystem, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error: a temporary failure that may succeed on retry.
func Transient(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
