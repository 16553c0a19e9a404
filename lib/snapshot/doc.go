// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot reads and writes portable task archives.
//
// A snapshot is a zstd-compressed stream of JSON lines:
//
//	{"format":"nova-snapshot","version":1,"created_at":"...","task_count":N}
//	{...task...}   one line per task, N in total
//	{"checksum":"<hex>"}
//
// The header's task_count tells the reader where the payload ends, so
// the trailer needs no sentinel of its own. The checksum is the BLAKE3
// hash of every uncompressed byte before the trailer, newlines
// included; Read refuses a payload that does not match it with
// ErrChecksumMismatch.
//
// Export and Import bind the codec to a task store. Export writes the
// whole store to a file, going through a temporary sibling and a
// rename so a crash never leaves a half-written archive under the
// final name. Import upserts a file's tasks back in by ID and never
// deletes: tasks absent from the snapshot survive it untouched.
package snapshot
