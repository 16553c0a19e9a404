// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault seals and opens the credentials bundle: API tokens for
// the task sources and the issue tracker, encrypted with age.
//
// The bundle is a small JSON document,
//
//	{"version":1,"credentials":{"planner":"...","tracker":"..."}}
//
// encrypted to one or more age x25519 recipients, or to an scrypt
// passphrase for offline copies. On disk the vault is the raw age
// stream, owner-only.
//
// The daemon opens the vault at startup with its identity file;
// GenerateIdentity writes one in age-keygen's format and returns the
// public key the CLI seals to. Sealing to additional recipients lets
// an operator escrow key open the same vault.
//
// Decrypted bytes are held in locked memory (lib/secret) until the
// bundle is decoded; the decoded token strings are heap values handed
// to HTTP clients at request scope, and the locked copy is zeroed.
package vault
