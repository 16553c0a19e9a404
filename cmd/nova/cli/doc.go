// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command framework for the nova CLI: a
// nestable [Command] tree with help output and typo suggestions,
// struct-tag flag binding via [BindFlags], the --json output
// convention via [JSONOutput], and the [Connection] type that
// resolves the daemon socket from flags, environment, or the config
// file.
package cli
