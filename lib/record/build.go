// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package record assembles candidate file records from raw
// ingredients: file-system metadata, the uploaded blob handle, and a
// computed checksum. Building never validates — the caller runs the
// schema check explicitly before submission, so a violation is
// reported with its field paths rather than buried in construction.
package record

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/skyfile-dev/skyfile/lib/schema"
)

// FileInfo is the declared metadata of a file about to be uploaded.
// It is an honest declaration, not a verified fact: the server never
// cross-checks it against the blob.
type FileInfo struct {
	// Name is the base name of the file.
	Name string

	// Size is the byte length of the content being uploaded.
	Size int64

	// MimeType is the declared content type; empty means unknown.
	MimeType string

	// ModifiedAt is the file's last-modified time; the zero value
	// means unavailable.
	ModifiedAt time.Time
}

// Stat reads FileInfo from the file at path. File-system errors (not
// found, permission denied) propagate unchanged so the caller can
// report them before any network call is made. The MIME type is
// resolved by extension first, then content sniffing, then the generic
// octet-stream fallback.
func Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}

	return FileInfo{
		Name:       filepath.Base(path),
		Size:       info.Size(),
		MimeType:   DetectMimeType(path),
		ModifiedAt: info.ModTime(),
	}, nil
}

// Build assembles a candidate record from the file metadata, blob
// handle, and optional checksum and attribution. The result is ready
// for schema validation; Build itself performs none.
//
// now supplies the clock for createdAt and the modified-time fallback;
// nil means time.Now.
func Build(info FileInfo, blob *schema.BlobRef, sum *schema.Checksum, attribution string, now func() time.Time) *schema.FileRecord {
	if now == nil {
		now = time.Now
	}
	current := now().UTC()

	modified := info.ModifiedAt
	if modified.IsZero() {
		modified = current
	}

	record := &schema.FileRecord{
		Type:      schema.Collection,
		Blob:      blob,
		CreatedAt: current.Format(time.RFC3339),
		File: schema.FileDescriptor{
			Name: info.Name,
			Size: info.Size,
		},
		Checksum: sum,
	}

	if info.MimeType != "" {
		mimeType := info.MimeType
		record.File.MimeType = &mimeType
	}
	modifiedAt := modified.UTC().Format(time.RFC3339)
	record.File.ModifiedAt = &modifiedAt

	if attribution != "" {
		record.Attribution = &attribution
	}

	return record
}

// DetectMimeType resolves a MIME type for the file at path: the
// extension table first, content sniffing as a fallback, and
// application/octet-stream when neither recognizes the file.
func DetectMimeType(path string) string {
	if byExtension := mime.TypeByExtension(filepath.Ext(path)); byExtension != "" {
		return bareMediaType(byExtension)
	}

	if detected, err := mimetype.DetectFile(path); err == nil {
		return bareMediaType(detected.String())
	}

	return "application/octet-stream"
}

// bareMediaType strips parameters like "; charset=utf-8" — the record
// declares a bare media type.
func bareMediaType(full string) string {
	mediaType, _, err := mime.ParseMediaType(full)
	if err != nil {
		return full
	}
	return mediaType
}

// AlgorithmWarnings returns advisory warnings for a checksum whose
// algorithm is outside the recommended set. The schema accepts any
// algorithm name; this is the layered business check, and the caller
// decides whether to show it.
func AlgorithmWarnings(sum *schema.Checksum) []string {
	if sum == nil {
		return nil
	}
	for _, recommended := range schema.RecommendedAlgorithms {
		if sum.Algo == recommended {
			return nil
		}
	}
	return []string{fmt.Sprintf(
		"checksum algorithm %q is not in the recommended set (%v); the record is still valid",
		sum.Algo, schema.RecommendedAlgorithms,
	)}
}
