// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// --- create ---

type createParams struct {
	cli.Connection
	cli.JSONOutput
	Title       string `flag:"title,t" desc:"one-line summary (required)"`
	Description string `flag:"description,d" desc:"longer free-form description"`
	Priority    int    `flag:"priority,p" desc:"priority 0-100 (-1 for the default)" default:"-1"`
	Due         string `flag:"due" desc:"due instant, RFC 3339"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create a manual task",
		Description: `Create a task under the manual source. Manual tasks are owned
locally: no sync cycle will ever modify or remove them.`,
		Usage: "nova task create --title TITLE [flags]",
		Examples: []cli.Example{
			{
				Description: "A quick reminder",
				Command:     "nova task create --title 'Renew TLS certificates'",
			},
			{
				Description: "A dated, high-priority item",
				Command:     "nova task create --title 'Quarterly review prep' --priority 80 --due 2026-09-30T17:00:00Z",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("create", &params)
		},
		Run: func(args []string) error {
			if params.Title == "" {
				return fmt.Errorf("--title is required")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			fields := map[string]any{"title": params.Title}
			if params.Description != "" {
				fields["description"] = params.Description
			}
			if params.Priority >= 0 {
				fields["priority"] = params.Priority
			}
			if params.Due != "" {
				fields["due_date"] = params.Due
			}

			var row task.Task
			if err := client.Call(ctx, "task.create", fields, &row); err != nil {
				return err
			}

			if done, err := params.EmitJSON(row); done {
				return err
			}

			fmt.Printf("created %s\n", row.ID)
			return nil
		},
	}
}

// --- status ---

type statusParams struct {
	cli.Connection
	cli.JSONOutput
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Set a task's lifecycle status",
		Description: `Move a task to a new lifecycle status: open, in_progress, done,
dismissed, or snoozed. Status on synced rows survives until the
source reports a conflicting state.`,
		Usage: "nova task status <task-id> <status> [flags]",
		Examples: []cli.Example{
			{
				Description: "Mark a task finished",
				Command:     "nova task status manual:7f3a2b done",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("a task ID and a status are required")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			fields := map[string]any{"id": args[0], "status": args[1]}
			var row task.Task
			if err := client.Call(ctx, "task.set-status", fields, &row); err != nil {
				return err
			}

			if done, err := params.EmitJSON(row); done {
				return err
			}

			fmt.Printf("%s is now %s\n", row.ID, row.Status)
			return nil
		},
	}
}

// --- pin / unpin ---

type pinParams struct {
	cli.Connection
	cli.JSONOutput
}

func pinCommand() *cli.Command {
	var params pinParams

	return &cli.Command{
		Name:    "pin",
		Summary: "Pin a task to the top of every list",
		Description: `Pin a task. Pinned tasks sort before everything else in list
output. The flag is local: syncs never touch it.`,
		Usage: "nova task pin <task-id> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("pin", &params)
		},
		Run: func(args []string) error {
			return runPin(&params.Connection, &params.JSONOutput, args, true)
		},
	}
}

func unpinCommand() *cli.Command {
	var params pinParams

	return &cli.Command{
		Name:    "unpin",
		Summary: "Remove a task's pin",
		Usage:   "nova task unpin <task-id> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("unpin", &params)
		},
		Run: func(args []string) error {
			return runPin(&params.Connection, &params.JSONOutput, args, false)
		},
	}
}

// runPin is the shared body of pin and unpin.
func runPin(conn *cli.Connection, jsonOut *cli.JSONOutput, args []string, pinned bool) error {
	if len(args) != 1 {
		return fmt.Errorf("exactly one task ID is required")
	}

	client, err := conn.Connect()
	if err != nil {
		return err
	}

	ctx, cancel := cli.CallContext()
	defer cancel()

	fields := map[string]any{"id": args[0], "pinned": pinned}
	var row task.Task
	if err := client.Call(ctx, "task.pin", fields, &row); err != nil {
		return err
	}

	if done, err := jsonOut.EmitJSON(row); done {
		return err
	}

	if row.Pinned {
		fmt.Printf("pinned %s\n", row.ID)
	} else {
		fmt.Printf("unpinned %s\n", row.ID)
	}
	return nil
}

// --- delete ---

type deleteParams struct {
	cli.Connection
}

func deleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a task",
		Description: `Delete a stored task. Deleting a synced row only lasts until its
source reports the item again on the next cycle; deleting a manual
task is permanent.`,
		Usage: "nova task delete <task-id> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one task ID is required")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			if err := client.Call(ctx, "task.delete", map[string]any{"id": args[0]}, nil); err != nil {
				return err
			}

			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}
