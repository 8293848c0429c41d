// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package file implements the skyfile record commands: upload, list,
// show, get, and delete.
//
// Every command authenticates a fresh PDS session from the resolved
// connection settings (flags > environment > config file), performs
// its operations sequentially, and releases the session before
// returning. There are no retries: a network failure surfaces
// immediately as a terminal error for that invocation.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/lib/config"
	"github.com/skyfile-dev/skyfile/lib/pds"
	"github.com/skyfile-dev/skyfile/lib/schema"
	"github.com/skyfile-dev/skyfile/lib/secret"
)

// Connection manages the connection and credential flags shared by all
// record commands. Values left empty fall through to the environment
// and the config file via config.Resolve.
type Connection struct {
	Service      string
	Identifier   string
	Password     string
	PasswordFile string
	Debug        bool
}

// AddFlags registers the shared connection flags.
func (c *Connection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.Service, "service", "", "PDS base URL (default "+config.DefaultService+")")
	flagSet.StringVar(&c.Identifier, "identifier", "", "account handle or DID")
	flagSet.StringVar(&c.Password, "password", "", "app password (prefer --password-file)")
	flagSet.StringVar(&c.PasswordFile, "password-file", "", "read the app password from a file, or - for stdin")
	flagSet.BoolVar(&c.Debug, "debug", false, "log full server error detail")
}

// session resolves credentials and authenticates. The returned cleanup
// function closes both the session and the password buffer; call it
// before returning from the command.
func (c *Connection) session(ctx context.Context, logger *slog.Logger) (*pds.Session, func(), error) {
	resolved, err := config.Resolve(config.Flags{
		Service:      c.Service,
		Identifier:   c.Identifier,
		Password:     c.Password,
		PasswordFile: c.PasswordFile,
	})
	if err != nil {
		return nil, nil, cli.Validation("resolving connection settings: %w", err)
	}

	if resolved.Identifier == "" {
		resolved.Close()
		return nil, nil, cli.Validation("no account identifier configured; run 'skyfile config setup' or pass --identifier")
	}
	if resolved.Password == nil {
		prompted, promptErr := secret.Prompt(fmt.Sprintf("Password for %s: ", resolved.Identifier))
		if promptErr != nil {
			resolved.Close()
			return nil, nil, cli.Auth("no password configured: %w", promptErr)
		}
		resolved.Password = prompted
	}

	client, err := pds.NewClient(pds.ClientConfig{
		ServiceURL: resolved.Service,
		Logger:     logger,
	})
	if err != nil {
		resolved.Close()
		return nil, nil, cli.Validation("invalid service URL: %w", err)
	}

	session, err := client.CreateSession(ctx, resolved.Identifier, resolved.Password)
	if err != nil {
		resolved.Close()
		return nil, nil, mapSessionError(err, logger)
	}

	cleanup := func() {
		session.Close()
		resolved.Close()
	}
	return session, cleanup, nil
}

// mapSessionError converts a createSession failure into a categorized
// command error, logging the full server detail at debug level.
func mapSessionError(err error, logger *slog.Logger) error {
	logServerError(logger, err)
	if pds.IsAuthFailure(err) {
		return cli.Auth("authentication failed: check identifier and app password")
	}
	return cli.Transient("connecting to PDS: %w", err)
}

// mapRecordError converts a record operation failure into a
// categorized command error. rkey names the record for not-found
// messages; pass "" for operations without one.
func mapRecordError(err error, rkey string, logger *slog.Logger) error {
	logServerError(logger, err)
	switch {
	case pds.IsNotFound(err):
		if rkey != "" {
			return cli.NotFound("record not found: %s", rkey)
		}
		return cli.NotFound("%w", err)
	case pds.IsAuthFailure(err):
		return cli.Auth("session rejected: %w", err)
	default:
		return cli.Transient("%w", err)
	}
}

// logServerError records the structured XRPC error detail, visible
// with --debug.
func logServerError(logger *slog.Logger, err error) {
	var xrpcErr *pds.XRPCError
	if errors.As(err, &xrpcErr) {
		logger.Debug("server error",
			"status", xrpcErr.StatusCode,
			"name", xrpcErr.Name,
			"message", xrpcErr.Message,
		)
		return
	}
	logger.Debug("request failed", "error", err)
}

// decodeRecord decodes a stored record value into its typed form
// without validating. Reads are tolerant: a record another client
// wrote with extra or missing fields still lists and shows.
func decodeRecord(stored *pds.Record) (*schema.FileRecord, error) {
	var typed schema.FileRecord
	if err := json.Unmarshal(stored.Value, &typed); err != nil {
		return nil, cli.Internal("decoding record %s: %w", stored.RKey(), err)
	}
	return &typed, nil
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
