// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings persists the user-tunable sync preferences: which
// sources are enabled and how often each one polls.
//
// Settings are deliberately separate from service configuration
// (lib/config): configuration is operator-owned and read once at
// startup, while settings change at runtime through the CLI and must
// take effect without a restart. The aggregator re-reads them on every
// cycle decision and on explicit reconfiguration.
//
// The backing file is JSON, rewritten atomically on every change
// (write to a temporary file, fsync, rename). An empty path gives an
// in-memory store for tests.
package settings
