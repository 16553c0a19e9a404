// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package attention computes urgency and SLA signals from raw
// issue-tracker payloads.
//
// Every function is pure and deterministic given (issue, now,
// priority); callers pass now explicitly so evaluation is testable and
// so a whole batch evaluates against one instant.
//
// Payloads are raw maps read through lib/rawfield, so fields may sit
// flat, under "fields", or inside {"value": X} wrappers. The logical
// fields consulted:
//
//   - "status": workflow status name.
//   - "created": creation timestamp.
//   - "next_update": a future-scheduled next-update commitment.
//   - "last_agent_update": when an agent last responded.
//   - "sla": resolution SLA cycles. Either one cycle object or a list;
//     a cycle holds optional "ongoingCycle" and "completedCycles", each
//     entry with optional "breached" and "remainingTime": {"millis": N}.
//   - "duedate" (or "due_date"/"dueDateTime"): due date.
//
// Invalid or missing dates read as absent rather than failing.
package attention
