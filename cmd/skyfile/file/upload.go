// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package file

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/pflag"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/lib/checksum"
	"github.com/skyfile-dev/skyfile/lib/pds"
	"github.com/skyfile-dev/skyfile/lib/record"
	"github.com/skyfile-dev/skyfile/lib/schema"
)

type uploadParams struct {
	Connection
	cli.JSONOutput
	MimeType     string
	ChecksumAlgo string
	Compress     bool
	Attribution  string
}

// uploadResult is the machine-readable outcome printed with --json.
type uploadResult struct {
	URI      string `json:"uri"`
	CID      string `json:"cid"`
	RKey     string `json:"rkey"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Checksum string `json:"checksum"`
}

// UploadCommand returns the "upload" command.
func UploadCommand() *cli.Command {
	var params uploadParams

	return &cli.Command{
		Name:    "upload",
		Summary: "Upload a file and create its record",
		Usage:   "skyfile upload <file> [flags]",
		Description: `Upload a file as a content-addressed blob and create the metadata
record referencing it.

The file is read and checksummed locally before any network call. The
candidate record is validated client-side; on a violation the issue
list is printed and nothing is uploaded to the record store. The
server performs its own authoritative validation as well.`,
		Examples: []cli.Example{
			{
				Description: "Upload a document",
				Command:     "skyfile upload report.pdf",
			},
			{
				Description: "Upload with an explicit MIME type and blake3 checksum",
				Command:     "skyfile upload data.bin --mime-type application/x-custom --checksum-algo blake3",
			},
			{
				Description: "Compress before uploading",
				Command:     "skyfile upload access.log --compress",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("upload", pflag.ContinueOnError)
			params.Connection.AddFlags(flagSet)
			params.JSONOutput.AddFlag(flagSet)
			flagSet.StringVar(&params.MimeType, "mime-type", "", "MIME type (detected from extension and content if omitted)")
			flagSet.StringVar(&params.ChecksumAlgo, "checksum-algo", string(checksum.Default), "checksum algorithm (sha256, sha512, blake3)")
			flagSet.BoolVar(&params.Compress, "compress", false, "gzip the content before uploading")
			flagSet.StringVar(&params.Attribution, "attribution", "", "handle or DID credited for the upload")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one file argument, got %d", len(args))
			}
			return runUpload(ctx, args[0], &params, logger)
		},
	}
}

func runUpload(ctx context.Context, path string, params *uploadParams, logger *slog.Logger) error {
	// Local file work happens before any network call, so a missing
	// or unreadable file never costs a round-trip.
	info, err := record.Stat(path)
	if err != nil {
		return cli.FileSystem("%w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cli.FileSystem("reading %s: %w", path, err)
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = record.DetectMimeType(path)
	}

	if params.Compress {
		compressed, err := gzipBytes(data)
		if err != nil {
			return cli.Internal("compressing %s: %w", path, err)
		}
		logger.Debug("compressed content",
			"original_size", len(data),
			"compressed_size", len(compressed),
		)
		data = compressed
		info.Name += ".gz"
		info.Size = int64(len(compressed))
		mimeType = "application/gzip"
	}

	algorithm := checksum.Algorithm(params.ChecksumAlgo)
	if !checksum.Known(string(algorithm)) {
		return cli.Validation("unknown checksum algorithm %q (supported: sha256, sha512, blake3)", params.ChecksumAlgo)
	}
	// The checksum covers the bytes actually uploaded, compressed or not.
	digest, err := checksum.Sum(data, algorithm)
	if err != nil {
		return cli.Internal("computing checksum: %w", err)
	}
	sum := &schema.Checksum{Algo: string(algorithm), Hash: digest}
	for _, warning := range record.AlgorithmWarnings(sum) {
		cli.Warnf("%s", warning)
	}

	session, cleanup, err := params.session(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	blob, err := session.UploadBlob(ctx, bytes.NewReader(data), mimeType)
	if err != nil {
		logServerError(logger, err)
		return cli.Transient("uploading blob: %w", err)
	}
	logger.Debug("blob uploaded", "cid", blob.ContentID(), "size", len(data))

	info.MimeType = mimeType
	candidate := record.Build(info, blob, sum, params.Attribution, time.Now)

	// Pre-flight validation against the record schema. On violation,
	// print every issue with its field path and abort: the blob was
	// uploaded but no record references it, so the server's garbage
	// collector reclaims it.
	wire, err := candidate.Wire()
	if err != nil {
		return cli.Internal("encoding record: %w", err)
	}
	if result := schema.SafeParse(schema.FileRecordSchema(), wire); !result.OK {
		fmt.Fprintf(os.Stderr, "record failed validation:\n")
		for _, issue := range result.Issues {
			fmt.Fprintf(os.Stderr, "  %s: %s (%s)\n", issue.Path, issue.Detail, issue.Code)
		}
		return &cli.ExitError{Code: 1}
	}

	created, err := session.CreateRecord(ctx, schema.Collection, candidate)
	if err != nil {
		return mapRecordError(err, "", logger)
	}

	uri, err := pds.ParseATURI(created.URI)
	if err != nil {
		return cli.Internal("server returned unparseable record URI %q: %w", created.URI, err)
	}

	output := uploadResult{
		URI:      created.URI,
		CID:      created.CID,
		RKey:     uri.RKey,
		Name:     candidate.File.Name,
		Size:     candidate.File.Size,
		MimeType: mimeType,
		Checksum: sum.Algo + ":" + sum.Hash,
	}
	if done, err := params.EmitJSON(output); done {
		return err
	}

	fmt.Printf("uploaded %s (%s, %s)\n", candidate.File.Name, formatSize(candidate.File.Size), mimeType)
	fmt.Printf("  uri:  %s\n", created.URI)
	fmt.Printf("  cid:  %s\n", created.CID)
	fmt.Printf("  rkey: %s\n", uri.RKey)
	return nil
}

// gzipBytes compresses data at the default level.
func gzipBytes(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
