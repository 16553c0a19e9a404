// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package onboarding

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
	"github.com/Wardy-uk/NOVA-sub001/lib/onboarding"
)

// recentResult mirrors the daemon's "onboarding.recent" response.
type recentResult struct {
	Runs  []onboarding.Run `json:"runs"`
	Count int              `json:"count"`
}

// matrixResult mirrors the daemon's matrix summary responses.
type matrixResult struct {
	Path         string   `json:"path"`
	SaleTypes    []string `json:"sale_types"`
	TicketGroups int      `json:"ticket_groups"`
	Assignments  int      `json:"assignments"`
}

type showParams struct {
	cli.Connection
	cli.JSONOutput
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show the recorded run for a reference",
		Usage:   "nova onboarding show <ref> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one onboarding reference is required")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var run onboarding.Run
			if err := client.Call(ctx, "onboarding.show", map[string]any{"ref": args[0]}, &run); err != nil {
				return err
			}

			if done, err := params.EmitJSON(run); done {
				return err
			}
			return writeRunDetail(run)
		},
	}
}

type recentParams struct {
	cli.Connection
	cli.JSONOutput

	Limit int `flag:"limit,n" default:"20" desc:"maximum runs to list"`
}

func recentCommand() *cli.Command {
	var params recentParams

	return &cli.Command{
		Name:    "recent",
		Summary: "List recent onboarding runs",
		Usage:   "nova onboarding recent [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("recent", &params)
		},
		Run: func(args []string) error {
			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			fields := map[string]any{}
			if params.Limit > 0 {
				fields["limit"] = params.Limit
			}

			var result recentResult
			if err := client.Call(ctx, "onboarding.recent", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result.Runs); done {
				return err
			}

			if len(result.Runs) == 0 {
				fmt.Println("no onboarding runs recorded")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "ID\tREF\tSTATUS\tPARENT\tCHILDREN\tUPDATED\n")
			for _, run := range result.Runs {
				parent := run.ParentKey
				if parent == "" {
					parent = "-"
				}
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%d\t%s\n",
					run.ID,
					run.Ref,
					run.Status,
					parent,
					len(run.Children),
					formatAge(run.UpdatedAt),
				)
			}
			return writer.Flush()
		},
	}
}

type matrixParams struct {
	cli.Connection
	cli.JSONOutput
}

func matrixCommand() *cli.Command {
	var params matrixParams

	return &cli.Command{
		Name:    "matrix",
		Summary: "Summarize the loaded capability matrix",
		Usage:   "nova onboarding matrix [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("matrix", &params)
		},
		Run: func(args []string) error {
			return callMatrix(&params, "onboarding.matrix", "")
		},
	}
}

func reloadMatrixCommand() *cli.Command {
	var params matrixParams

	return &cli.Command{
		Name:    "reload-matrix",
		Summary: "Re-read the capability matrix file",
		Description: `Re-read the capability matrix file and swap it in. On failure the
daemon keeps serving the previous matrix and the error reports what
the file got wrong.`,
		Usage: "nova onboarding reload-matrix [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("reload-matrix", &params)
		},
		Run: func(args []string) error {
			return callMatrix(&params, "onboarding.reload-matrix", "matrix reloaded")
		},
	}
}

// callMatrix drives both matrix actions; they share a response shape.
func callMatrix(params *matrixParams, action, banner string) error {
	client, err := params.Connect()
	if err != nil {
		return err
	}

	ctx, cancel := cli.CallContext()
	defer cancel()

	var result matrixResult
	if err := client.Call(ctx, action, nil, &result); err != nil {
		return err
	}

	if done, err := params.EmitJSON(result); done {
		return err
	}

	if banner != "" {
		fmt.Println(banner)
	}
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Path:\t%s\n", result.Path)
	saleTypes := "-"
	if len(result.SaleTypes) > 0 {
		saleTypes = strings.Join(result.SaleTypes, ", ")
	}
	fmt.Fprintf(writer, "Sale types:\t%s\n", saleTypes)
	fmt.Fprintf(writer, "Ticket groups:\t%d\n", result.TicketGroups)
	fmt.Fprintf(writer, "Assignments:\t%d\n", result.Assignments)
	return writer.Flush()
}

// writeRunDetail renders one ledger record.
func writeRunDetail(run onboarding.Run) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Ref:\t%s\n", run.Ref)
	fmt.Fprintf(writer, "Run:\t#%d\n", run.ID)
	fmt.Fprintf(writer, "Status:\t%s\n", run.Status)
	if run.ParentKey != "" {
		fmt.Fprintf(writer, "Parent:\t%s\n", run.ParentKey)
	}
	fmt.Fprintf(writer, "Created:\t%d\n", run.CreatedCount)
	fmt.Fprintf(writer, "Linked:\t%d\n", run.LinkedCount)
	if run.ErrorMessage != "" {
		fmt.Fprintf(writer, "Error:\t%s\n", run.ErrorMessage)
	}
	fmt.Fprintf(writer, "Started:\t%s\n", run.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(writer, "Updated:\t%s\n", run.UpdatedAt.Local().Format(time.RFC1123))
	if err := writer.Flush(); err != nil {
		return err
	}

	if len(run.Children) > 0 {
		fmt.Println()
		return writeChildren(run.Children)
	}
	return nil
}

// formatAge renders how long ago an instant was.
func formatAge(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return time.Since(at).Round(time.Second).String() + " ago"
}
