// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package sync

import "github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"

// Command returns the "sync" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "sync",
		Summary: "Run and inspect source syncs",
		Description: `Run sync cycles on demand and inspect per-source sync state.

The daemon polls every enabled source on its own timer; these
commands trigger extra cycles and show what the timers have been
doing. A cycle that fails upstream is reported in its result, not as
a command error.`,
		Subcommands: []*cli.Command{
			runCommand(),
			allCommand(),
			statusCommand(),
		},
	}
}
