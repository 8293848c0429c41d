// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/lib/pds"
	"github.com/skyfile-dev/skyfile/lib/schema"
)

type showParams struct {
	Connection
	cli.JSONOutput
	Verify bool
}

// showResult is the --json output shape.
type showResult struct {
	URI         string             `json:"uri"`
	CID         string             `json:"cid"`
	RKey        string             `json:"rkey"`
	Record      *schema.FileRecord `json:"record"`
	ComputedCID string             `json:"computedCid,omitempty"`
	CIDMatch    *bool              `json:"cidMatch,omitempty"`
}

// ShowCommand returns the "show" command.
func ShowCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show a record's metadata",
		Usage:   "skyfile show <rkey> [flags]",
		Description: `Fetch one record by key and print its metadata fields.

With --verify, the record's CID is recomputed locally from the stored
value (deterministic dag-cbor, sha2-256) and compared against the CID
the server reported. A mismatch is advisory: it means the server
returned content that does not match its own addressing.`,
		Examples: []cli.Example{
			{
				Description: "Show a record",
				Command:     "skyfile show 3k2akfyhszc2a",
			},
			{
				Description: "Show and verify content addressing",
				Command:     "skyfile show 3k2akfyhszc2a --verify",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			params.Connection.AddFlags(flagSet)
			params.JSONOutput.AddFlag(flagSet)
			flagSet.BoolVar(&params.Verify, "verify", false, "recompute the record CID and compare")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one rkey argument, got %d", len(args))
			}
			return runShow(ctx, args[0], &params, logger)
		},
	}
}

func runShow(ctx context.Context, rkey string, params *showParams, logger *slog.Logger) error {
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

	result := showResult{
		URI:    stored.URI,
		CID:    stored.CID,
		RKey:   rkey,
		Record: typed,
	}

	if params.Verify {
		var value any
		if err := json.Unmarshal(stored.Value, &value); err != nil {
			return cli.Internal("decoding record value: %w", err)
		}
		computed, err := pds.RecordCID(value)
		if err != nil {
			return cli.Internal("recomputing record CID: %w", err)
		}
		match := computed == stored.CID
		result.ComputedCID = computed
		result.CIDMatch = &match
	}

	if done, err := params.EmitJSON(result); done {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "rkey:\t%s\n", rkey)
	fmt.Fprintf(tw, "uri:\t%s\n", stored.URI)
	fmt.Fprintf(tw, "cid:\t%s\n", stored.CID)
	fmt.Fprintf(tw, "name:\t%s\n", typed.File.Name)
	fmt.Fprintf(tw, "size:\t%s (%d bytes)\n", formatSize(typed.File.Size), typed.File.Size)
	if typed.File.MimeType != nil {
		fmt.Fprintf(tw, "mime type:\t%s\n", *typed.File.MimeType)
	}
	if typed.File.ModifiedAt != nil {
		fmt.Fprintf(tw, "modified:\t%s\n", *typed.File.ModifiedAt)
	}
	fmt.Fprintf(tw, "created:\t%s\n", typed.CreatedAt)
	if typed.Checksum != nil {
		fmt.Fprintf(tw, "checksum:\t%s:%s\n", typed.Checksum.Algo, typed.Checksum.Hash)
	}
	if typed.Attribution != nil {
		fmt.Fprintf(tw, "attribution:\t%s\n", *typed.Attribution)
	}
	fmt.Fprintf(tw, "blob cid:\t%s\n", typed.Blob.ContentID())
	tw.Flush()

	if params.Verify {
		if *result.CIDMatch {
			cli.Successf("computed CID matches: %s", result.ComputedCID)
		} else {
			cli.Warnf("CID mismatch: server says %s, computed %s", stored.CID, result.ComputedCID)
		}
	}
	return nil
}
