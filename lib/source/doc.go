// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package source fetches raw task records from upstream systems.
//
// Every supported upstream exposes some flavor of "GET a JSON list":
// trackers return {"issues": [...]}, graph-style APIs wrap results in
// {"value": [...]}, plainer feeds return a bare array. FeedClient
// handles all of them with one client: it fetches a configured URL
// with optional bearer auth, finds the item list in the response
// shape, and hands the raw records to the aggregator untouched.
// Everything source-specific about the records themselves belongs to
// lib/normalize, not here.
//
// Locally-owned sources (manual, milestone) have no client; their
// tasks never come from a fetch.
package source
