// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings implements the "nova settings" command group:
// reading and changing the daemon's sync preferences (per-source
// enablement and polling intervals) over the control socket.
package settings
