// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package file

import (
	"context"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/lib/schema"
)

type listParams struct {
	Connection
	cli.JSONOutput
	Limit int
}

// listEntry is one row of --json output.
type listEntry struct {
	RKey      string `json:"rkey"`
	URI       string `json:"uri"`
	CID       string `json:"cid"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// ListCommand returns the "list" command.
func ListCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List stored file records",
		Usage:   "skyfile list [flags]",
		Description: `List the file records in the account's collection, newest first
(server ordering).

Records written by other clients are listed as-is without validation;
a record missing metadata fields shows blank columns rather than
failing the whole listing.`,
		Examples: []cli.Example{
			{
				Description: "List the ten most recent uploads",
				Command:     "skyfile list --limit 10",
			},
			{
				Description: "Machine-readable listing",
				Command:     "skyfile list --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			params.Connection.AddFlags(flagSet)
			params.JSONOutput.AddFlag(flagSet)
			flagSet.IntVar(&params.Limit, "limit", 50, "maximum number of records")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("list takes no arguments, got %d", len(args))
			}
			return runList(ctx, &params, logger)
		},
	}
}

func runList(ctx context.Context, params *listParams, logger *slog.Logger) error {
	session, cleanup, err := params.session(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := session.ListRecords(ctx, schema.Collection, params.Limit)
	if err != nil {
		return mapRecordError(err, "", logger)
	}

	entries := make([]listEntry, 0, len(records))
	for _, stored := range records {
		entry := listEntry{
			RKey: stored.RKey(),
			URI:  stored.URI,
			CID:  stored.CID,
		}
		if typed, err := decodeRecord(&stored); err == nil {
			entry.Name = typed.File.Name
			entry.Size = typed.File.Size
			entry.CreatedAt = typed.CreatedAt
			if typed.File.MimeType != nil {
				entry.MimeType = *typed.File.MimeType
			}
		} else {
			logger.Debug("skipping record metadata", "rkey", stored.RKey(), "error", err)
		}
		entries = append(entries, entry)
	}

	if done, err := params.EmitJSON(entries); done {
		return err
	}

	if len(entries) == 0 {
		cli.Noticef("no records in %s", schema.Collection)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"RKey", "Name", "Size", "Type", "Created"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, entry := range entries {
		table.Append([]string{
			entry.RKey,
			entry.Name,
			formatSize(entry.Size),
			entry.MimeType,
			entry.CreatedAt,
		})
	}
	table.Render()
	return nil
}
