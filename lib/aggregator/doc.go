// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package aggregator drives the sync pipeline: fetch raw records from
// each configured source, normalize them into drafts, upsert them into
// the task store, and reconcile what upstream no longer reports.
//
// Each source moves through an explicit per-cycle state machine (idle,
// fetching, normalizing, reconciling, error) observable via
// [Aggregator.State]. A cycle that fails ends in the error state and
// records its error in the source's last result, but never affects
// other sources or future cycles of its own source.
//
// Two guarantees shape the cycle ordering:
//
//   - A fetch or upsert failure short-circuits before the stale pass.
//     Stale deletion only ever runs against a fresh-ID set from a
//     genuinely successful fetch, so a flaky upstream can never wipe
//     its tasks. An empty result from a healthy fetch, by contrast, is
//     real and deletes everything for that source.
//   - At most one cycle per source runs at a time. A second request
//     while one is in flight returns [ErrSyncInFlight] instead of
//     queueing; concurrent cycles for different sources are fine.
//
// Locally-owned sources (manual, milestone) never get a stale pass:
// nothing upstream exists to compare against.
//
// [Aggregator.Run] polls every enabled source on its own ticker, with
// intervals read from settings. [Aggregator.Reconfigure] re-reads them
// and restarts only the timers whose interval actually changed, so
// settings edits take effect without a process restart.
package aggregator
