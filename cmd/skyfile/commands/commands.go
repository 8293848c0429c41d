// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete skyfile CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/cmd/skyfile/configcmd"
	"github.com/skyfile-dev/skyfile/cmd/skyfile/file"
	"github.com/skyfile-dev/skyfile/lib/version"
)

// Root builds and returns the complete skyfile CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "skyfile",
		Description: `skyfile: file storage on the AT Protocol.

Upload files as content-addressed blobs to your Personal Data Server
and track them with typed metadata records in the dev.skyfile.file
collection. Your account's repository is the storage backend; any
client that speaks the protocol can read the records back.`,
		Examples: []cli.Example{
			{
				Description: "Store credentials, then upload",
				Command:     "skyfile config setup && skyfile upload report.pdf",
			},
			{
				Description: "List recent uploads",
				Command:     "skyfile list --limit 10",
			},
			{
				Description: "Download a file by record key",
				Command:     "skyfile get 3k2akfyhszc2a -o report.pdf",
			},
		},
		Subcommands: []*cli.Command{
			file.UploadCommand(),
			file.ListCommand(),
			file.ShowCommand(),
			file.GetCommand(),
			file.DeleteCommand(),
			configcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("skyfile %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
