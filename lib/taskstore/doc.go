// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskstore persists the canonical task collection in SQLite.
//
// Every task is keyed by "source:source_id". The aggregation pipeline
// writes through [Batch], which flushes a whole source's drafts in a
// single IMMEDIATE transaction; direct user edits (status changes, pin
// toggles, manual tasks) go through the single-row methods.
//
// # Change suppression
//
// Re-ingesting an unchanged upstream record must not touch a row.
// Each upsert computes a BLAKE3 hash over the source-reported fields
// (title, description, status, priority, due date, URL) and compares
// it with the stored hash; matching rows are skipped entirely, so
// updated_at only moves when the source actually reported something
// new. Attention metadata (urgency score, SLA remaining) is derived
// from the evaluation instant rather than the record, so it refreshes
// on every sync without advancing updated_at.
//
// # Local state
//
// The pin flag and the locally-set statuses (done, dismissed, snoozed)
// belong to the user, not the source. Upserts never write the pin
// flag, and a locally-set status survives upstream content changes;
// only the source's open/in_progress transitions flow through.
//
// Stale cleanup is strictly source-scoped: DeleteStaleBySource removes
// rows for one source absent from the fresh-ID set and can never touch
// another source's rows. Locally-owned sources are protected by the
// caller (the aggregator never runs a stale pass for them).
package taskstore
