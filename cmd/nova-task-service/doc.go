// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Nova-task-service is the local hub daemon. It aggregates work items
// from remote feeds (issue tracker, planner, todo, calendar, email,
// spreadsheet board) into one SQLite-backed task list, scores tasks
// for attention against SLA and due-date rules, runs the onboarding
// ticket workflow against the external tracker, and serves the whole
// API over a Unix socket using the CBOR protocol.
//
// # Startup
//
// The service reads its YAML configuration from --config (or the
// NOVA_CONFIG environment variable), creates the data directories,
// opens the sealed credential vault when one exists, clears transient
// task rows left by the previous run, and starts one poll timer per
// configured source. Onboarding components are wired only when a
// tracker is configured; the capability matrix must parse and validate
// or startup fails.
//
// # Credentials
//
// Feed and tracker tokens come from the age-sealed vault at
// paths.vault_file, unsealed with the identity file at
// paths.vault_identity. A name missing from the vault falls back to
// the NOVA_TOKEN_<NAME> environment variable (NOVA_TOKEN_ISSUE_TRACKER
// for the issue-tracker feed). Setting service.require_vault refuses
// startup without a vault and disables the environment fallback.
//
// # Socket API
//
// The CLI connects to the service's Unix socket and sends one CBOR
// request per connection. The "action" field names the operation,
// grouped by area: ping/status/sources for the service itself, task.*
// for the unified list, sync.* and settings.* for the aggregation
// loop, onboarding.* for the ticket workflow, and snapshot.* for
// portable backups.
package main
