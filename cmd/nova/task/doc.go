// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package task implements the "nova task" CLI subcommand group for
// viewing and managing aggregated tasks via the daemon's Unix socket.
//
// Query commands (list, get) read stored rows. Mutation commands
// (create, status, pin, unpin, delete) write through the daemon;
// create always lands under the manual source, and deleting a row
// owned by a synced source only lasts until its next sync cycle
// reports the item again.
package task
