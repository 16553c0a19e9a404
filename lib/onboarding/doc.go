// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package onboarding creates the ticket tree for a customer onboarding:
// one parent ticket per onboarding reference and one child ticket per
// ticket group the customer's sale type entitles them to, each child
// linked back to the parent as a blocker.
//
// What a sale type entitles is declared in the capability matrix, a
// JSONC file mapping sale types to enabled capabilities and grouping
// capabilities into ticket groups. MatrixProvider loads the file and
// swaps it atomically on reload, so the matrix changes as one batch or
// not at all; there is no per-cell mutation that could leave a
// half-updated matrix behind.
//
// Execute is idempotent per onboarding reference at two levels. The run
// ledger short-circuits a reference whose run already succeeded, and a
// live run searches the tracker for each deterministic ticket summary
// before creating it, so retries after partial failure re-derive what
// exists rather than duplicating it. Per-child creation and linking
// failures are logged and skipped; the run finishes partial instead of
// failing, and the ledger records whatever was produced.
package onboarding
