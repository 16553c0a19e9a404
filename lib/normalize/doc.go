// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package normalize converts raw source records into canonical task
// drafts.
//
// Each source registers a strategy function in a Registry; dispatch is
// by source identifier, so adding a source never grows a conditional
// chain. Built-in strategies cover the issue tracker (with attention
// metadata attached), planner, todo, calendar, and email shapes; any
// unregistered source falls through to the generic strategy, which
// guesses among common field names.
//
// Items a source reports as finished (percent-complete 100, textual
// "completed") are excluded from ingestion entirely: strategies return
// an error wrapping ErrSkipItem and the caller drops the item without
// treating it as a failure.
package normalize
