// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/lib/schema"
	"github.com/skyfile-dev/skyfile/lib/textscan"
)

type getParams struct {
	Connection
	Output string
	Yes    bool
}

// GetCommand returns the "get" command.
func GetCommand() *cli.Command {
	var params getParams

	return &cli.Command{
		Name:    "get",
		Summary: "Download a record's blob content",
		Usage:   "skyfile get <rkey> [flags]",
		Description: `Fetch the record, then download the blob it references.

Content goes to --output when given, otherwise to stdout. When the
content looks binary, stdout is a terminal, and --yes is not set, a
confirmation is asked first — raw binary can garble a terminal. The
bytes themselves are always written unmodified; the classification
only gates the prompt.`,
		Examples: []cli.Example{
			{
				Description: "Download to a file",
				Command:     "skyfile get 3k2akfyhszc2a -o report.pdf",
			},
			{
				Description: "Pipe content through another tool",
				Command:     "skyfile get 3k2akfyhszc2a | sha256sum",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			params.Connection.AddFlags(flagSet)
			flagSet.StringVarP(&params.Output, "output", "o", "", "write content to a file instead of stdout")
			flagSet.BoolVar(&params.Yes, "yes", false, "skip the binary content confirmation")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one rkey argument, got %d", len(args))
			}
			return runGet(ctx, args[0], &params, logger)
		},
	}
}

func runGet(ctx context.Context, rkey string, params *getParams, logger *slog.Logger) error {
	session, cleanup, err := params.session(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	stored, err := session.GetRecord(ctx, schema.Collection, rkey)
	if err != nil {
		return mapRecordError(err, rkey, logger)
	}

	typed, err := decodeRecord(stored)
	if err != nil {
		return err
	}
	blobCID := typed.Blob.ContentID()
	if blobCID == "" {
		return cli.Internal("record %s has no usable blob reference", rkey)
	}

	data, err := session.DownloadBlob(ctx, blobCID)
	if err != nil {
		return mapRecordError(err, rkey, logger)
	}
	logger.Debug("blob downloaded", "cid", blobCID, "size", len(data))

	if params.Output != "" {
		if err := os.WriteFile(params.Output, data, 0644); err != nil {
			return cli.FileSystem("writing %s: %w", params.Output, err)
		}
		cli.Successf("wrote %s (%s)", params.Output, formatSize(int64(len(data))))
		return nil
	}

	// Binary safety gate for interactive terminals only. Piped stdout
	// gets the bytes without questions.
	if !params.Yes && cli.StdoutIsTerminal() && textscan.IsBinary(data) {
		confirmed, err := cli.Confirm(fmt.Sprintf("%s looks binary (%s); write to the terminal anyway?",
			typed.File.Name, formatSize(int64(len(data)))))
		if err != nil {
			return cli.Internal("reading confirmation: %w", err)
		}
		if !confirmed {
			cli.Noticef("not written; use --output FILE or --yes")
			return &cli.ExitError{Code: 1}
		}
	}

	if _, err := os.Stdout.Write(data); err != nil {
		return cli.FileSystem("writing to stdout: %w", err)
	}
	return nil
}
