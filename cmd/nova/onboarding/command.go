// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package onboarding

import (
	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
)

// Command returns the "onboarding" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "onboarding",
		Summary: "Run and inspect the onboarding ticket workflow",
		Description: `Run the customer onboarding ticket workflow and inspect its run
ledger. A run creates one parent ticket per onboarding reference and
one child ticket per ticket group the capability matrix resolves for
the sale type, linking each child to the parent.

Runs are idempotent per reference. A reference whose run already
succeeded is answered from the ledger without touching the tracker,
and an interrupted run picks up where it left off, adopting tickets
that already exist.`,
		Subcommands: []*cli.Command{
			runCommand(),
			previewCommand(),
			showCommand(),
			recentCommand(),
			matrixCommand(),
			reloadMatrixCommand(),
		},
	}
}
