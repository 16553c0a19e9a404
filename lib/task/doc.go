// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package task defines the canonical task model every source normalizes
// into.
//
// A task's identity is "source:source_id": stable across syncs, unique
// across the store. Sources divide into synced (rows are owned by the
// upstream system and garbage-collected when they vanish from a fetch),
// locally-owned (manual, milestone — never garbage-collected), and
// transient (calendar, email — cleared at service startup and re-fetched).
package task
