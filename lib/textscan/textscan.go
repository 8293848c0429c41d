// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package textscan decides whether a byte buffer is safe to print to
// an interactive terminal. The verdict is advisory UX, not a security
// boundary: it gates a confirmation prompt, and the underlying bytes
// are always written unmodified regardless of the classification — a
// wrong "text" verdict risks a garbled terminal, nothing more.
package textscan

// SampleSize is the number of leading bytes inspected. Sampling bounds
// the scan cost for large downloads; binary signatures cluster at the
// start of real file formats.
const SampleSize = 8192

// binaryControlRatio is the control-character density above which a
// null-free sample is classified as binary. Text with occasional
// embedded control bytes (terminal escape sequences, form feeds) stays
// below it.
const binaryControlRatio = 0.3

// IsBinary classifies data by scanning up to SampleSize leading bytes.
//
// A single null byte anywhere in the sample is a definite verdict:
// text encodings do not produce nulls, so the scan short-circuits to
// binary. Otherwise control bytes below 0x20 — excluding tab, line
// feed, and carriage return — are counted, and the sample is binary
// when they exceed binaryControlRatio of its length.
//
// An empty buffer is text.
func IsBinary(data []byte) bool {
	sample := data
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	if len(sample) == 0 {
		return false
	}

	nonText := 0
	for _, b := range sample {
		if b == 0x00 {
			return true
		}
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			nonText++
		}
	}

	return float64(nonText)/float64(len(sample)) > binaryControlRatio
}
