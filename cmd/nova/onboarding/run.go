// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package onboarding

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
	"github.com/Wardy-uk/NOVA-sub001/lib/onboarding"
)

type runParams struct {
	cli.Connection
	cli.JSONOutput

	Customer string   `flag:"customer,c" desc:"customer name for the parent ticket summary"`
	SaleType string   `flag:"sale-type,t" desc:"sale type the capability matrix resolves ticket groups for"`
	Groups   []string `flag:"group,g" desc:"restrict child creation to these ticket groups (id or name, repeatable)"`
	DryRun   bool     `flag:"dry-run" desc:"preview the tickets without creating anything"`
}

func runCommand() *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Run the onboarding workflow for a reference",
		Description: `Run the onboarding ticket workflow for one reference. Creates the
parent ticket, one child per resolved ticket group, and the missing
child-blocks-parent links, reusing any of those that already exist.

A reference with a recorded successful run is answered from the
ledger without tracker calls. Restricting groups with --group keeps
the run partial, so a later unrestricted run can finish it.`,
		Usage: "nova onboarding run <ref> [flags]",
		Examples: []cli.Example{
			{
				Description: "Onboard a new fibre customer",
				Command:     "nova onboarding run PROJ-105 --customer \"Acme Ltd\" --sale-type fibre-300",
			},
			{
				Description: "Create only the billing group's ticket for now",
				Command:     "nova onboarding run PROJ-105 --customer \"Acme Ltd\" --sale-type fibre-300 --group billing",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("run", &params)
		},
		Run: func(args []string) error {
			return executeRun(&params, args, params.DryRun)
		},
	}
}

type previewParams struct {
	cli.Connection
	cli.JSONOutput

	Customer string   `flag:"customer,c" desc:"customer name for the parent ticket summary"`
	SaleType string   `flag:"sale-type,t" desc:"sale type the capability matrix resolves ticket groups for"`
	Groups   []string `flag:"group,g" desc:"restrict the preview to these ticket groups (id or name, repeatable)"`
}

func previewCommand() *cli.Command {
	var params previewParams

	return &cli.Command{
		Name:    "preview",
		Summary: "Show what an onboarding run would create",
		Description: `Show the tickets a live run would create for a reference, without
creating anything or writing a run record. A reference whose run
already succeeded reports the recorded outcome instead.`,
		Usage: "nova onboarding preview <ref> [flags]",
		Examples: []cli.Example{
			{
				Description: "Check the ticket plan before running",
				Command:     "nova onboarding preview PROJ-105 --customer \"Acme Ltd\" --sale-type fibre-300",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("preview", &params)
		},
		Run: func(args []string) error {
			run := runParams{
				Connection: params.Connection,
				JSONOutput: params.JSONOutput,
				Customer:   params.Customer,
				SaleType:   params.SaleType,
				Groups:     params.Groups,
			}
			return executeRun(&run, args, true)
		},
	}
}

// executeRun drives the "onboarding.run" action for both run and
// preview.
func executeRun(params *runParams, args []string, dryRun bool) error {
	if len(args) != 1 {
		return fmt.Errorf("exactly one onboarding reference is required")
	}
	if params.Customer == "" {
		return fmt.Errorf("--customer is required")
	}
	if params.SaleType == "" {
		return fmt.Errorf("--sale-type is required")
	}

	fields := map[string]any{
		"ref":       args[0],
		"customer":  params.Customer,
		"sale_type": params.SaleType,
	}
	if dryRun {
		fields["dry_run"] = true
	}
	if len(params.Groups) > 0 {
		fields["groups"] = params.Groups
	}

	client, err := params.Connect()
	if err != nil {
		return err
	}

	// A live run creates tickets over the tracker API one by one.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var result onboarding.Result
	if err := client.Call(ctx, "onboarding.run", fields, &result); err != nil {
		return err
	}

	if done, err := params.EmitJSON(result); done {
		return err
	}
	return writeResult(result)
}

// writeResult renders one run outcome: the preview table for dry
// runs, the recorded state for everything else.
func writeResult(result onboarding.Result) error {
	if result.DryRun {
		return writePreviews(result)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Ref:\t%s\n", result.Ref)
	status := string(result.Status)
	if result.Existing {
		status += " (recorded by an earlier run)"
	}
	fmt.Fprintf(writer, "Status:\t%s\n", status)
	if result.ParentKey != "" {
		fmt.Fprintf(writer, "Parent:\t%s\n", result.ParentKey)
	}
	fmt.Fprintf(writer, "Created:\t%d\n", result.CreatedCount)
	fmt.Fprintf(writer, "Linked:\t%d\n", result.LinkedCount)
	if err := writer.Flush(); err != nil {
		return err
	}

	if len(result.Children) > 0 {
		fmt.Println()
		return writeChildren(result.Children)
	}
	return nil
}

func writeChildren(children []onboarding.ChildTicket) error {
	writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "GROUP\tNAME\tTICKET\n")
	for _, child := range children {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", child.GroupID, child.GroupName, child.IssueKey)
	}
	return writer.Flush()
}

func writePreviews(result onboarding.Result) error {
	fmt.Printf("Dry run for %s: %d tickets would be created\n\n", result.Ref, len(result.Previews))

	writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "SUMMARY\tGROUP\tCAPABILITIES\n")
	for _, preview := range result.Previews {
		group := preview.GroupID
		if group == "" {
			group = "-"
		}
		capabilities := "-"
		if len(preview.Capabilities) > 0 {
			capabilities = strings.Join(preview.Capabilities, ", ")
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", preview.Summary, group, capabilities)
	}
	return writer.Flush()
}
