// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package pds is an XRPC client for the AT Protocol Personal Data
// Server endpoints skyfile uses: session creation, blob upload and
// download, and record create/list/get/delete.
//
// [Client] holds the service URL and HTTP transport. [Client.CreateSession]
// authenticates and returns a [Session] whose access token lives in a
// mlock-backed secret.Buffer; all authenticated calls hang off the
// Session. Server-side failures surface as [*XRPCError] carrying the
// wire error name, message, and HTTP status, extractable with
// errors.As or the [IsXRPCError] helper.
//
// [RecordCID] recomputes a record's content identifier locally
// (deterministic dag-cbor, sha2-256, CIDv1 in lowercase base32) so a
// caller can cross-check the CID the server reported.
package pds
