// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
)

// Response mirrors for the daemon's diagnostic actions. Field names
// must match the daemon's encoding; the CBOR codec falls back to json
// tags when cbor tags are absent.

type pingResult struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type statusResult struct {
	Version       string         `json:"version"`
	Environment   string         `json:"environment"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	TotalTasks    int            `json:"total_tasks"`
	TaskCounts    map[string]int `json:"task_counts"`
	Onboarding    bool           `json:"onboarding"`
}

type sourceEntry struct {
	Name            string  `json:"name"`
	Enabled         bool    `json:"enabled"`
	Phase           string  `json:"phase"`
	IntervalSeconds float64 `json:"interval_seconds,omitempty"`
	Schedule        string  `json:"schedule,omitempty"`
}

type sourcesResult struct {
	Synced       []sourceEntry `json:"synced"`
	LocallyOwned []string      `json:"locally_owned"`
}

// --- ping ---

type pingParams struct {
	cli.Connection
	cli.JSONOutput
}

func pingCommand() *cli.Command {
	var params pingParams

	return &cli.Command{
		Name:    "ping",
		Summary: "Check the daemon is reachable",
		Usage:   "nova ping [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("ping", &params)
		},
		Run: func(args []string) error {
			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var result pingResult
			if err := client.Call(ctx, "ping", nil, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			fmt.Printf("ok: daemon up %s\n", formatUptime(result.UptimeSeconds))
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
		Summary: "Show daemon version, uptime, and task counts",
		Usage:   "nova status [flags]",
		Examples: []cli.Example{
			{
				Description: "Status as JSON for scripts",
				Command:     "nova status --json",
			},
		},
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
			if err := client.Call(ctx, "status", nil, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			return writeStatusDetail(result)
		},
	}
}

// writeStatusDetail writes a human-readable daemon status view.
func writeStatusDetail(result statusResult) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "Version:\t%s\n", result.Version)
	fmt.Fprintf(writer, "Environment:\t%s\n", result.Environment)
	fmt.Fprintf(writer, "Uptime:\t%s\n", formatUptime(result.UptimeSeconds))
	fmt.Fprintf(writer, "Tasks:\t%d\n", result.TotalTasks)

	names := make([]string, 0, len(result.TaskCounts))
	for name := range result.TaskCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(writer, "  %s:\t%d\n", name, result.TaskCounts[name])
	}

	onboarding := "disabled"
	if result.Onboarding {
		onboarding = "enabled"
	}
	fmt.Fprintf(writer, "Onboarding:\t%s\n", onboarding)

	return writer.Flush()
}

// --- sources ---

type sourcesParams struct {
	cli.Connection
	cli.JSONOutput
}

func sourcesCommand() *cli.Command {
	var params sourcesParams

	return &cli.Command{
		Name:    "sources",
		Summary: "List syncable sources and their state",
		Usage:   "nova sources [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("sources", &params)
		},
		Run: func(args []string) error {
			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var result sourcesResult
			if err := client.Call(ctx, "sources", nil, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "NAME\tENABLED\tPHASE\tPOLL\n")
			for _, entry := range result.Synced {
				poll := formatInterval(entry.IntervalSeconds)
				if entry.Schedule != "" {
					poll = entry.Schedule
				}
				fmt.Fprintf(writer, "%s\t%t\t%s\t%s\n",
					entry.Name,
					entry.Enabled,
					entry.Phase,
					poll,
				)
			}
			if err := writer.Flush(); err != nil {
				return err
			}

			if len(result.LocallyOwned) > 0 {
				fmt.Printf("\nLocally owned (never synced): %s\n", strings.Join(result.LocallyOwned, ", "))
			}
			return nil
		},
	}
}

// formatUptime renders a seconds count as a rounded duration.
func formatUptime(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

// formatInterval renders a poll interval, "-" when the timer is not
// running.
func formatInterval(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}
