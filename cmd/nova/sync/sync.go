// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package sync

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
	"github.com/Wardy-uk/NOVA-sub001/lib/aggregator"
)

// Response mirrors for the daemon's sync actions. Cycle outcomes
// cross the wire as [aggregator.Result] values encoded by their json
// tags.

type allResult struct {
	Results []aggregator.Result `json:"results"`
}

type statusEntry struct {
	Source          string             `json:"source"`
	Enabled         bool               `json:"enabled"`
	Phase           string             `json:"phase"`
	IntervalSeconds float64            `json:"interval_seconds,omitempty"`
	Schedule        string             `json:"schedule,omitempty"`
	LastResult      *aggregator.Result `json:"last_result,omitempty"`
}

type statusResult struct {
	Sources []statusEntry `json:"sources"`
}

// cycleContext bounds a sync call. Cycles wait on upstream HTTP
// fetches, so they get a much longer leash than in-memory actions.
func cycleContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}

// --- run ---

type runParams struct {
	cli.Connection
	cli.JSONOutput
}

func runCommand() *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Run one sync cycle for a source",
		Description: `Run a synchronous sync cycle for one source and report its
outcome. Fails fast when the source is disabled, has no configured
feed, or already has a cycle in flight.`,
		Usage: "nova sync run <source> [flags]",
		Examples: []cli.Example{
			{
				Description: "Refresh calendar items now",
				Command:     "nova sync run calendar",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("run", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one source name is required")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cycleContext()
			defer cancel()

			var result aggregator.Result
			if err := client.Call(ctx, "sync.run", map[string]any{"source": args[0]}, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			fmt.Println(describeResult(result))
			if result.Error != "" {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// --- all ---

type allParams struct {
	cli.Connection
	cli.JSONOutput
}

func allCommand() *cli.Command {
	var params allParams

	return &cli.Command{
		Name:    "all",
		Summary: "Run one sync cycle for every enabled source",
		Description: `Sweep every enabled source once, in canonical order, and report
each outcome. Disabled sources are skipped. Exits 1 when any cycle
failed, after printing every result.`,
		Usage: "nova sync all [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("all", &params)
		},
		Run: func(args []string) error {
			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cycleContext()
			defer cancel()

			var result allResult
			if err := client.Call(ctx, "sync.all", nil, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result.Results); done {
				return err
			}

			failed := false
			for _, cycle := range result.Results {
				fmt.Println(describeResult(cycle))
				if cycle.Error != "" {
					failed = true
				}
			}
			if len(result.Results) == 0 {
				fmt.Println("no enabled sources")
			}

			if failed {
				return &cli.ExitError{Code: 1}
			}
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
		Summary: "Show per-source sync state",
		Usage:   "nova sync status [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Run: func(args []string) error {
			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var result statusResult
			if err := client.Call(ctx, "sync.status", nil, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result.Sources); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "SOURCE\tENABLED\tPHASE\tPOLL\tLAST\tITEMS\tERROR\n")
			for _, entry := range result.Sources {
				poll := formatInterval(entry.IntervalSeconds)
				if entry.Schedule != "" {
					poll = entry.Schedule
				}
				last, items, cycleErr := "-", "-", "-"
				if r := entry.LastResult; r != nil {
					last = formatAge(r.Finished)
					items = fmt.Sprintf("%d", r.Count)
					if r.Error != "" {
						cycleErr = truncate(r.Error, 48)
					}
				}
				fmt.Fprintf(writer, "%s\t%t\t%s\t%s\t%s\t%s\t%s\n",
					entry.Source,
					entry.Enabled,
					entry.Phase,
					poll,
					last,
					items,
					cycleErr,
				)
			}
			return writer.Flush()
		},
	}
}

// describeResult renders one cycle outcome as a single line.
func describeResult(result aggregator.Result) string {
	if result.Error != "" {
		return fmt.Sprintf("%s: failed: %s", result.Source, result.Error)
	}
	line := fmt.Sprintf("%s: %d items (%d inserted, %d updated, %d unchanged, %d removed)",
		result.Source, result.Count, result.Inserted, result.Updated, result.Unchanged, result.Removed)
	if result.Skipped > 0 {
		line += fmt.Sprintf(", %d finished skipped", result.Skipped)
	}
	if result.Malformed > 0 {
		line += fmt.Sprintf(", %d malformed", result.Malformed)
	}
	return line + fmt.Sprintf(" in %s", result.Finished.Sub(result.Started).Round(time.Millisecond))
}

// formatAge renders how long ago an instant was.
func formatAge(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return time.Since(at).Round(time.Second).String() + " ago"
}

// formatInterval renders a poll interval, "-" when the timer is not
// running.
func formatInterval(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

// truncate shortens s to at most maxLength characters, with an
// ellipsis when content was dropped.
func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}
