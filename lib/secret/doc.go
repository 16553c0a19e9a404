// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive data:
// API tokens, passphrases, age identities, decrypted credential
// bundles.
//
// [Buffer] allocates memory outside the Go heap via
// mmap(MAP_ANONYMOUS), locks it into physical RAM via mlock
// (preventing swap), and marks it excluded from core dumps via
// madvise(MADV_DONTDUMP). On Close, the memory is zeroed, unlocked,
// and unmapped. Because the memory lives outside the Go heap, the
// garbage collector cannot copy or relocate it, so no stray copy of
// the secret survives release.
//
// Constructors:
//
//   - [New] allocates a zero-filled buffer of a given size
//   - [NewFromBytes] copies into protected memory and zeros the source
//   - [ReadFromPath] reads a secret from a file, or stdin with "-"
//
// Access via [Buffer.Bytes] (a slice into the mmap region) or
// [Buffer.String] (a heap copy, for API boundaries that demand a
// string). After Close, any access panics. [Zero] wipes transient
// heap slices that briefly held secret material.
//
// Depends on golang.org/x/sys/unix and nothing else in this module.
// Imported by lib/vault for identities, passphrases, and decrypted
// bundles.
package secret
