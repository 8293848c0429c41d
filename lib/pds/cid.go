// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package pds

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cidBase32 is the multibase base32lower alphabet (no padding) used by
// CIDv1 string form. The string form carries a leading "b" multibase
// prefix that is not part of the encoded bytes.
var cidBase32 = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// cborEnc is the deterministic encoder used for record hashing.
// dag-cbor requires RFC 7049 canonical form: map keys sorted
// length-first, then bytewise.
var cborEnc cbor.EncMode

func init() {
	encoder, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("pds: building cbor encoder: %v", err))
	}
	cborEnc = encoder
}

// RecordCID computes the CIDv1 of a record value the way the PDS does:
// the value is encoded as deterministic dag-cbor (with blob references
// converted back to CID link tags), hashed with sha2-256, and wrapped
// in a CIDv1 with the dag-cbor codec, rendered as "b" + base32lower.
//
// value is the record as decoded from its JSON wire form (maps, slices,
// strings, numbers). Used to cross-check the CID the server reported;
// a mismatch means the server returned something other than what it
// addressed.
func RecordCID(value any) (string, error) {
	prepared, err := toDAGCBOR(value)
	if err != nil {
		return "", err
	}

	encoded, err := cborEnc.Marshal(prepared)
	if err != nil {
		return "", fmt.Errorf("pds: cbor encoding record: %w", err)
	}

	digest := sha256.Sum256(encoded)

	// CIDv1 header: version 1, dag-cbor codec (0x71), then the
	// multihash: sha2-256 (0x12) with a 32-byte (0x20) digest.
	cid := make([]byte, 0, 4+len(digest))
	cid = append(cid, 0x01, 0x71, 0x12, 0x20)
	cid = append(cid, digest[:]...)

	return "b" + cidBase32.EncodeToString(cid), nil
}

// toDAGCBOR converts a JSON-decoded record value into the shape the PDS
// hashes. JSON carries CID links as {"$link": "b..."} objects; dag-cbor
// carries them as tag 42 over the binary CID with a 0x00 multibase
// identity prefix. Numbers decoded as float64 are restored to integers
// where they are integral, since dag-cbor has no float record fields in
// this collection.
func toDAGCBOR(value any) (any, error) {
	switch typed := value.(type) {
	case map[string]any:
		if link, ok := typed["$link"].(string); ok && len(typed) == 1 {
			raw, err := decodeCIDString(link)
			if err != nil {
				return nil, err
			}
			return cbor.Tag{Number: 42, Content: append([]byte{0x00}, raw...)}, nil
		}
		converted := make(map[string]any, len(typed))
		for key, entry := range typed {
			inner, err := toDAGCBOR(entry)
			if err != nil {
				return nil, err
			}
			converted[key] = inner
		}
		return converted, nil
	case []any:
		converted := make([]any, len(typed))
		for index, entry := range typed {
			inner, err := toDAGCBOR(entry)
			if err != nil {
				return nil, err
			}
			converted[index] = inner
		}
		return converted, nil
	case float64:
		if typed == float64(int64(typed)) {
			return int64(typed), nil
		}
		return typed, nil
	default:
		return value, nil
	}
}

// decodeCIDString decodes the binary form of a CIDv1 string. Only the
// base32lower multibase ("b" prefix) is supported — it is the only form
// the PDS emits.
func decodeCIDString(cid string) ([]byte, error) {
	if len(cid) < 2 || cid[0] != 'b' {
		return nil, fmt.Errorf("pds: unsupported CID string %q: want base32lower multibase", cid)
	}
	raw, err := cidBase32.DecodeString(cid[1:])
	if err != nil {
		return nil, fmt.Errorf("pds: decoding CID %q: %w", cid, err)
	}
	return raw, nil
}
