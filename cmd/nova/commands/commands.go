// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete nova CLI command tree.
package commands

import (
	"fmt"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
	onboardingcmd "github.com/Wardy-uk/NOVA-sub001/cmd/nova/onboarding"
	settingscmd "github.com/Wardy-uk/NOVA-sub001/cmd/nova/settings"
	snapshotcmd "github.com/Wardy-uk/NOVA-sub001/cmd/nova/snapshot"
	synccmd "github.com/Wardy-uk/NOVA-sub001/cmd/nova/sync"
	taskcmd "github.com/Wardy-uk/NOVA-sub001/cmd/nova/task"
	vaultcmd "github.com/Wardy-uk/NOVA-sub001/cmd/nova/vault"
	"github.com/Wardy-uk/NOVA-sub001/lib/version"
)

// Root builds and returns the complete nova CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "nova",
		Description: `Nova: unified task aggregation service.

Aggregates work from issue trackers, planners, calendars, email and
more into one prioritized task list, with SLA-driven attention
scoring and an idempotent customer onboarding ticket workflow.`,
		Subcommands: []*cli.Command{
			pingCommand(),
			statusCommand(),
			sourcesCommand(),
			taskcmd.Command(),
			synccmd.Command(),
			settingscmd.Command(),
			onboardingcmd.Command(),
			snapshotcmd.Command(),
			vaultcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("nova %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check the daemon is up",
				Command:     "nova ping",
			},
			{
				Description: "List tasks that need attention",
				Command:     "nova task list --attention",
			},
			{
				Description: "Sweep every enabled source now",
				Command:     "nova sync all",
			},
			{
				Description: "Preview the tickets an onboarding run would create",
				Command:     "nova onboarding preview OB-1003 --customer 'Acme Ltd' --sale-type BYM",
			},
			{
				Description: "Slow the todo source down to hourly polling",
				Command:     "nova settings set --source todo --interval 60",
			},
			{
				Description: "Back up the task store",
				Command:     "nova snapshot export /var/backups/nova/tasks.snapshot",
			},
		},
	}
}
