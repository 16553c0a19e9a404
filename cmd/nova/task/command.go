// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package task

import "github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"

// Command returns the "task" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "task",
		Summary: "View and manage aggregated tasks",
		Description: `View and manage tasks aggregated from every configured source.

Synced rows (issue trackers, planners, calendars, email, boards) are
owned by their source and refreshed on every sync cycle; edits to
them do not stick. Manual tasks and the pin flag are owned locally
and never touched by syncs.`,
		Subcommands: []*cli.Command{
			listCommand(),
			searchCommand(),
			getCommand(),
			createCommand(),
			statusCommand(),
			pinCommand(),
			unpinCommand(),
			deleteCommand(),
		},
	}
}
