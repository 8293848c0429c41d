// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package checksum computes hex-encoded file digests for the
// algorithms skyfile records recommend: sha256, sha512, and blake3.
//
// The record schema deliberately accepts any algorithm name; this
// package is the other side of that bargain — it computes only the
// algorithms this client actually implements, and choosing an unknown
// one here is an error.
package checksum

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Algorithm names a digest algorithm this client can compute.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
	BLAKE3 Algorithm = "blake3"
)

// Default is the algorithm used when the caller does not choose one.
const Default = SHA256

// Known reports whether name is an algorithm this client computes.
func Known(name string) bool {
	switch Algorithm(name) {
	case SHA256, SHA512, BLAKE3:
		return true
	}
	return false
}

// HexLength returns the hex-encoded digest length for the algorithm,
// or 0 for an unknown one.
func (a Algorithm) HexLength() int {
	switch a {
	case SHA256, BLAKE3:
		return 64
	case SHA512:
		return 128
	}
	return 0
}

// newHasher returns a fresh hash state for the algorithm.
func newHasher(algorithm Algorithm) (hash.Hash, error) {
	switch algorithm {
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q (known: sha256, sha512, blake3)", algorithm)
	}
}

// Sum computes the hex-encoded digest of data.
func Sum(data []byte, algorithm Algorithm) (string, error) {
	hasher, err := newHasher(algorithm)
	if err != nil {
		return "", err
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// File computes the hex-encoded digest of the file at path. The file
// is streamed through the hash in chunks (io.Copy) so memory stays
// constant regardless of file size.
func File(path string, algorithm Algorithm) (string, error) {
	hasher, err := newHasher(algorithm)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
