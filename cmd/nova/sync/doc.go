// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package sync implements the "nova sync" CLI subcommand group for
// running sync cycles on demand and inspecting per-source sync state.
package sync
