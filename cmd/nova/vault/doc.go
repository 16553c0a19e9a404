// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault implements the "nova vault" command group: generating
// the daemon's age identity, sealing API tokens into the encrypted
// credentials bundle, and listing what a sealed bundle holds.
//
// These commands work on local files and never talk to the daemon;
// the daemon reads the bundle itself at startup.
package vault
