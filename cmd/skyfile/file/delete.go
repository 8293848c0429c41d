// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package file

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/lib/schema"
)

type deleteParams struct {
	Connection
	Yes bool
}

// DeleteCommand returns the "delete" command.
func DeleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a file record",
		Usage:   "skyfile delete <rkey> [flags]",
		Description: `Delete a record by key. The record is fetched first so the
confirmation can name the file it describes, and so an unknown rkey
fails cleanly before the delete call.

Deleting the record leaves its blob eligible for the server's garbage
collector. Collection happens asynchronously on the server; there is
no way to observe completion from here.`,
		Examples: []cli.Example{
			{
				Description: "Delete with confirmation",
				Command:     "skyfile delete 3k2akfyhszc2a",
			},
			{
				Description: "Delete without prompting (scripts)",
				Command:     "skyfile delete 3k2akfyhszc2a --yes",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("delete", pflag.ContinueOnError)
			params.Connection.AddFlags(flagSet)
			flagSet.BoolVar(&params.Yes, "yes", false, "skip the confirmation prompt")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one rkey argument, got %d", len(args))
			}
			return runDelete(ctx, args[0], &params, logger)
		},
	}
}

func runDelete(ctx context.Context, rkey string, params *deleteParams, logger *slog.Logger) error {
	session, cleanup, err := params.session(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	stored, err := session.GetRecord(ctx, schema.Collection, rkey)
	if err != nil {
		return mapRecordError(err, rkey, logger)
	}

	name := rkey
	if typed, err := decodeRecord(stored); err == nil && typed.File.Name != "" {
		name = typed.File.Name
	}

	if !params.Yes {
		confirmed, err := cli.Confirm(fmt.Sprintf("delete record %s (%s)?", rkey, name))
		if err != nil {
			return cli.Internal("reading confirmation: %w", err)
		}
		if !confirmed {
			cli.Noticef("not deleted")
			return &cli.ExitError{Code: 1}
		}
	}

	if err := session.DeleteRecord(ctx, schema.Collection, rkey); err != nil {
		return mapRecordError(err, rkey, logger)
	}

	fmt.Printf("deleted %s\n", rkey)
	cli.Noticef("the blob is now unreferenced; the server garbage-collects it asynchronously")
	return nil
}
