// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package rawfield reads values out of raw source payloads.
//
// External systems deliver records as loosely-shaped JSON objects. The
// same logical field can appear as a flat key, nested under a "fields"
// object, or wrapped in a {"value": X} envelope that some clients emit
// for custom fields. Accessors here walk that fallback chain (flat →
// fields.key → unwrap) and coerce to the requested type, so callers
// never branch on payload shape.
//
// Coercion is forgiving where upstream data is sloppy: numeric strings
// read as numbers, several timestamp layouts are accepted, and invalid
// or missing dates read as absent rather than failing.
package rawfield
