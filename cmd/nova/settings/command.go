// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
)

// Command returns the "settings" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "settings",
		Summary: "Read and change sync preferences",
		Description: `Read and change the daemon's sync preferences. Changes apply to
the running timers immediately and persist across restarts.

Sources are enabled unless explicitly disabled. A source without an
interval override polls at the shared default interval.`,
		Subcommands: []*cli.Command{
			getCommand(),
			setCommand(),
		},
	}
}
