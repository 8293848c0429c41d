// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema validates untyped values against declarative schema
// trees and defines the skyfile file record.
//
// Validation rules are data, not code: a schema is a tree of variant
// values (String, Integer, Object, Union, ...) interpreted by one
// recursive routine that collects every violation with its dotted
// field path. Three entry points share that routine: Matches (boolean
// type guard), SafeParse (non-raising tagged result), and Parse
// (error with the same issue list).
//
// The typed side — FileRecord and its nested parts — mirrors the wire
// shape of the dev.skyfile.file record exactly. Optional fields are
// pointers so that "absent" and "present but empty" stay
// distinguishable through a marshal round trip.
package schema
