// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
)

// transferResult mirrors the daemon's snapshot responses.
type transferResult struct {
	Path  string `json:"path"`
	Tasks int    `json:"tasks"`
}

type exportParams struct {
	cli.Connection
	cli.JSONOutput
}

func exportCommand() *cli.Command {
	var params exportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Write every stored task to a snapshot file",
		Usage:   "nova snapshot export <path> [flags]",
		Examples: []cli.Example{
			{
				Description: "Take a backup before changing sync settings",
				Command:     "nova snapshot export ./tasks-backup.json.gz",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("export", &params)
		},
		Run: func(args []string) error {
			result, err := transfer(&params.Connection, "snapshot.export", args)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Printf("exported %d tasks to %s\n", result.Tasks, result.Path)
			return nil
		},
	}
}

type importParams struct {
	cli.Connection
	cli.JSONOutput
}

func importCommand() *cli.Command {
	var params importParams

	return &cli.Command{
		Name:    "import",
		Summary: "Merge a snapshot file into the task store",
		Usage:   "nova snapshot import <path> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("import", &params)
		},
		Run: func(args []string) error {
			result, err := transfer(&params.Connection, "snapshot.import", args)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Printf("imported %d tasks from %s\n", result.Tasks, result.Path)
			return nil
		},
	}
}

// transfer drives both snapshot actions: resolve the path against the
// caller's directory, then hand it to the daemon.
func transfer(conn *cli.Connection, action string, args []string) (transferResult, error) {
	var result transferResult

	if len(args) != 1 {
		return result, fmt.Errorf("exactly one snapshot path is required")
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return result, fmt.Errorf("resolving path: %w", err)
	}

	client, err := conn.Connect()
	if err != nil {
		return result, err
	}

	ctx, cancel := cli.CallContext()
	defer cancel()

	if err := client.Call(ctx, action, map[string]any{"path": path}, &result); err != nil {
		return result, err
	}
	return result, nil
}
