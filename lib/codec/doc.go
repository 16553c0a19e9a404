// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single place CBOR encoding is configured.
//
// The hub uses CBOR for its socket protocol and for packed columns in
// SQLite rows (attention reasons, onboarding child keys). Encoding is
// Core Deterministic (RFC 8949 §4.2): sorted map keys, smallest integer
// forms, no indefinite-length items, so identical logical values always
// produce identical bytes. That property is what makes content hashes
// over encoded rows meaningful.
//
// Consumers import this package, never fxamacker/cbor directly.
package codec
