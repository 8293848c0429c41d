// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds account passwords and session tokens in memory
// that is protected from the usual ways secrets leak out of a process.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the memory lives
// outside the Go heap, the garbage collector cannot copy or relocate
// it, so no stray copies of the secret survive release.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//
// [ReadFromPath] loads a secret from a file or stdin, and [Prompt]
// reads one interactively with terminal echo disabled. Access the
// contents via [Buffer.Bytes] (slice into the mmap region) or
// [Buffer.String] (heap copy for API boundaries that require strings).
// After Close, any access panics. Close is idempotent.
package secret
