// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package pds

import (
	"fmt"
	"strings"
)

// ATURI is a parsed at:// record URI: at://<authority>/<collection>/<rkey>.
// Authority is the repo DID (or handle); Collection is the record type
// NSID; RKey is the record key within the collection.
type ATURI struct {
	Authority  string
	Collection string
	RKey       string
}

// String reassembles the at:// form.
func (u ATURI) String() string {
	return "at://" + u.Authority + "/" + u.Collection + "/" + u.RKey
}

// ParseATURI parses an at:// record URI. All three components must be
// present and non-empty; repo-level URIs (no collection/rkey) are not
// accepted because skyfile only ever addresses individual records.
func ParseATURI(raw string) (ATURI, error) {
	rest, found := strings.CutPrefix(raw, "at://")
	if !found {
		return ATURI{}, fmt.Errorf("not an at:// URI: %q", raw)
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return ATURI{}, fmt.Errorf("at:// URI must have authority/collection/rkey: %q", raw)
	}
	for _, part := range parts {
		if part == "" {
			return ATURI{}, fmt.Errorf("at:// URI has an empty component: %q", raw)
		}
	}

	return ATURI{
		Authority:  parts[0],
		Collection: parts[1],
		RKey:       parts[2],
	}, nil
}
