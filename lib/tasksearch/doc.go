// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package tasksearch ranks stored tasks against a free-text query.
//
// Scoring is BM25 (Okapi) over a weighted flattening of each task:
// title tokens count three times, source ids twice, description and
// source name once. Rank recomputes corpus statistics on every call;
// there is no persistent index.
package tasksearch
