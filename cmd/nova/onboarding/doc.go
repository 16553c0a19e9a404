// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package onboarding implements the "nova onboarding" command group:
// running the customer onboarding ticket workflow, previewing what a
// run would create, and inspecting the run ledger and capability
// matrix over the daemon's control socket.
package onboarding
