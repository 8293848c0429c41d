// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"math"
)

// Collection is the NSID of the skyfile file record collection. It is
// also the record's "$type" discriminator and the collection name used
// in every repository call.
const Collection = "dev.skyfile.file"

// Field bounds for the file record. All intervals are closed; a value
// at either bound validates, one past it does not.
const (
	// MaxFileNameLength bounds file.name, in Unicode code points.
	MaxFileNameLength = 512

	// MaxDeclaredFileSize bounds the declared file.size metadata
	// field (1 GB). This bounds only the declaration — the actual
	// blob size is enforced server-side and may legitimately
	// diverge. Trust boundary, not a cross-check.
	MaxDeclaredFileSize = 1_000_000_000

	// MaxMimeTypeLength bounds file.mimeType.
	MaxMimeTypeLength = 255

	// MaxChecksumAlgoLength bounds checksum.algo.
	MaxChecksumAlgoLength = 32

	// MaxChecksumHashLength bounds checksum.hash (a hex sha512
	// digest is 128 characters).
	MaxChecksumHashLength = 128
)

// RecommendedAlgorithms lists the checksum algorithm names the record
// documentation recommends. The schema does not enforce this set:
// unknown names validate and surface only as advisory warnings. Do not
// tighten this into a hard enum.
var RecommendedAlgorithms = []string{"sha256", "sha512", "blake3"}

// FileRecord is the typed form of a dev.skyfile.file record. Optional
// fields are pointers: a nil pointer marshals to an absent key, never
// to an explicit null, and an empty string stays distinguishable from
// "not provided".
type FileRecord struct {
	// Type is the record discriminator, always Collection.
	Type string `json:"$type"`

	// Blob references the uploaded content. The record holds the
	// reference only; the server owns the bytes and garbage-collects
	// them once no record references the blob.
	Blob *BlobRef `json:"blob"`

	// CreatedAt is the record creation time, RFC 3339.
	CreatedAt string `json:"createdAt"`

	// File describes the uploaded file as declared by the client.
	File FileDescriptor `json:"file"`

	// Checksum is the digest of the uploaded bytes, if computed.
	Checksum *Checksum `json:"checksum,omitempty"`

	// Attribution optionally credits an account (handle or DID) for
	// the upload.
	Attribution *string `json:"attribution,omitempty"`
}

// FileDescriptor carries the declared file metadata.
type FileDescriptor struct {
	Name       string  `json:"name"`
	Size       int64   `json:"size"`
	MimeType   *string `json:"mimeType,omitempty"`
	ModifiedAt *string `json:"modifiedAt,omitempty"`
}

// Checksum is a named digest of the uploaded bytes.
type Checksum struct {
	Algo string `json:"algo"`
	Hash string `json:"hash"`
}

// BlobRef is a reference to a blob stored on the PDS. Two wire forms
// exist: the typed form ($type "blob" with a ref link) produced by
// current servers, and the legacy form (bare cid + mimeType) still
// found in older repositories. Exactly one form is populated.
type BlobRef struct {
	Type     string    `json:"$type,omitempty"`
	Ref      *BlobLink `json:"ref,omitempty"`
	MimeType string    `json:"mimeType,omitempty"`
	Size     int64     `json:"size,omitempty"`

	// CID is the legacy-form content identifier.
	CID string `json:"cid,omitempty"`
}

// BlobLink is the CID link inside a typed blob reference.
type BlobLink struct {
	Link string `json:"$link"`
}

// ContentID returns the blob's content identifier regardless of wire
// form, or "" when the reference is malformed.
func (b *BlobRef) ContentID() string {
	if b == nil {
		return ""
	}
	if b.Ref != nil {
		return b.Ref.Link
	}
	return b.CID
}

// FileRecordSchema returns the declarative schema for a
// dev.skyfile.file record value.
func FileRecordSchema() Schema {
	return Object{
		Name: "file record",
		Fields: []Field{
			{Name: "$type", Required: true, Schema: Literal{Value: Collection}},
			{Name: "blob", Required: true, Schema: blobSchema()},
			{Name: "createdAt", Required: true, Schema: String{Format: FormatDateTime}},
			{Name: "file", Required: true, Schema: fileDescriptorSchema()},
			{Name: "checksum", Schema: checksumSchema()},
			{Name: "attribution", Schema: String{Format: FormatActor}},
		},
	}
}

func fileDescriptorSchema() Schema {
	return Object{
		Name: "file descriptor",
		Fields: []Field{
			{Name: "name", Required: true, Schema: String{MaxLength: MaxFileNameLength}},
			{Name: "size", Required: true, Schema: Integer{Minimum: 0, Maximum: MaxDeclaredFileSize}},
			{Name: "mimeType", Schema: String{MaxLength: MaxMimeTypeLength}},
			{Name: "modifiedAt", Schema: String{Format: FormatDateTime}},
		},
	}
}

func checksumSchema() Schema {
	// algo is a plain bounded string on purpose: the recommended
	// algorithm set is advisory, enforced (softly) by the caller,
	// never by the schema.
	return Object{
		Name: "checksum",
		Fields: []Field{
			{Name: "algo", Required: true, Schema: String{MaxLength: MaxChecksumAlgoLength}},
			{Name: "hash", Required: true, Schema: String{MaxLength: MaxChecksumHashLength}},
		},
	}
}

func blobSchema() Schema {
	return Union{
		Branches: []Schema{
			Object{
				Name: "blob",
				Fields: []Field{
					{Name: "$type", Required: true, Schema: Literal{Value: "blob"}},
					{Name: "ref", Required: true, Schema: Object{
						Name: "blob link",
						Fields: []Field{
							{Name: "$link", Required: true, Schema: String{MinLength: 1}},
						},
					}},
					{Name: "mimeType", Schema: String{MaxLength: MaxMimeTypeLength}},
					{Name: "size", Schema: Integer{Minimum: 0, Maximum: math.MaxInt64}},
				},
			},
			Object{
				Name: "legacy blob",
				Fields: []Field{
					{Name: "cid", Required: true, Schema: String{MinLength: 1}},
					{Name: "mimeType", Schema: String{MaxLength: MaxMimeTypeLength}},
				},
			},
		},
	}
}

// MatchesFileRecord reports whether value is shaped like a valid file
// record. Type-guard mode: no detail beyond the verdict.
func MatchesFileRecord(value any) bool {
	return Matches(FileRecordSchema(), value)
}

// SafeParseFileRecord validates value and, on success, decodes it into
// the typed form. On failure the returned record is nil and the Result
// carries the full issue list. Never panics.
func SafeParseFileRecord(value any) (*FileRecord, Result) {
	result := SafeParse(FileRecordSchema(), value)
	if !result.OK {
		return nil, result
	}
	record, err := decodeFileRecord(value)
	if err != nil {
		return nil, Result{
			OK:      false,
			Message: "validation failed: " + err.Error(),
			Issues: []Issue{{
				Code:   IssueInvalidType,
				Detail: err.Error(),
			}},
		}
	}
	return record, result
}

// ParseFileRecord validates value and decodes it into the typed form,
// or fails with a *ValidationError carrying the same issue list that
// SafeParseFileRecord reports.
func ParseFileRecord(value any) (*FileRecord, error) {
	record, result := SafeParseFileRecord(value)
	if !result.OK {
		return nil, &ValidationError{Issues: result.Issues}
	}
	return record, nil
}

// Wire converts a typed record to its untyped wire form: the
// parsed-JSON shape that validation and the createRecord call operate
// on. Absent optional fields are omitted, never emitted as null.
func (r *FileRecord) Wire() (map[string]any, error) {
	encoded, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(encoded, &wire); err != nil {
		return nil, fmt.Errorf("decoding record to wire form: %w", err)
	}
	return wire, nil
}

func decodeFileRecord(value any) (*FileRecord, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding validated value: %w", err)
	}
	var record FileRecord
	if err := json.Unmarshal(encoded, &record); err != nil {
		return nil, fmt.Errorf("decoding validated value: %w", err)
	}
	return &record, nil
}
