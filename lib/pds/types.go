// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package pds

import (
	"encoding/json"

	"github.com/skyfile-dev/skyfile/lib/schema"
)

// createSessionRequest is the com.atproto.server.createSession body.
type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// createSessionResponse is the com.atproto.server.createSession reply.
type createSessionResponse struct {
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
}

// uploadBlobResponse is the com.atproto.repo.uploadBlob reply.
type uploadBlobResponse struct {
	Blob schema.BlobRef `json:"blob"`
}

// createRecordRequest is the com.atproto.repo.createRecord body.
type createRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

// CreateRecordResult identifies a newly created record.
type CreateRecordResult struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// Record is a stored record as returned by listRecords/getRecord. Value
// is left as raw JSON so callers decide how (and whether) to validate.
type Record struct {
	URI   string          `json:"uri"`
	CID   string          `json:"cid"`
	Value json.RawMessage `json:"value"`
}

// RKey extracts the record key from the record's at:// URI. Returns ""
// if the URI does not parse.
func (r *Record) RKey() string {
	uri, err := ParseATURI(r.URI)
	if err != nil {
		return ""
	}
	return uri.RKey
}

// listRecordsResponse is the com.atproto.repo.listRecords reply.
type listRecordsResponse struct {
	Records []Record `json:"records"`
	Cursor  string   `json:"cursor"`
}
