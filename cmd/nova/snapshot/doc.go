// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot implements the "nova snapshot" command group:
// exporting the daemon's task store to a portable snapshot file and
// merging one back in.
package snapshot
