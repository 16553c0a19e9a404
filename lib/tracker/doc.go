// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracker is the client surface for the external issue tracker
// that onboarding tickets are created in.
//
// The onboarding orchestrator needs four operations: search by query,
// create an issue, fetch an issue with its links, and record a link
// between two issues. Client captures exactly that surface; HTTPClient
// implements it against a minimal JSON contract:
//
//	GET  {base}/issues?query=Q&fields=a,b   → {"issues": [...]}
//	POST {base}/issues        (Fields body) → {"key": "..."}
//	GET  {base}/issues/{key}?fields=a,b     → Issue
//	POST {base}/links         (Link body)   → no body
//
// Queries are opaque strings interpreted by the tracker; SummaryQuery
// builds the one form Nova relies on, a literal substring match on the
// issue summary. Deployments fronting a tracker with a different API
// put a translation shim behind this contract or implement Client
// directly. Fake is an in-memory Client for tests.
package tracker
