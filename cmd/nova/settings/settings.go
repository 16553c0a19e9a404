// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
	"github.com/Wardy-uk/NOVA-sub001/lib/settings"
)

type getParams struct {
	cli.Connection
	cli.JSONOutput
}

func getCommand() *cli.Command {
	var params getParams

	return &cli.Command{
		Name:    "get",
		Summary: "Show the stored sync preferences",
		Description: `Show the settings document as stored: the shared default polling
interval and any per-source overrides. Sources without an override
are enabled and poll at the default interval.`,
		Usage: "nova settings get [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("get", &params)
		},
		Run: func(args []string) error {
			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var values settings.Values
			if err := client.Call(ctx, "settings.get", nil, &values); err != nil {
				return err
			}

			if done, err := params.EmitJSON(values); done {
				return err
			}
			return writeValues(values)
		},
	}
}

type setParams struct {
	cli.Connection
	cli.JSONOutput

	Source   string `flag:"source,s" desc:"source to change (omit to set the shared default interval)"`
	Enabled  string `flag:"enabled" desc:"enable or disable the source (true or false)"`
	Interval int    `flag:"interval,i" default:"-1" desc:"polling interval in minutes (0 clears a per-source override)"`
	Schedule string `flag:"schedule" desc:"poll on a 5-field cron expression (UTC) instead of an interval"`
}

func setCommand() *cli.Command {
	var params setParams

	return &cli.Command{
		Name:    "set",
		Summary: "Change sync preferences",
		Description: `Change one source's enablement or polling plan, or the shared
default interval when no source is given. A source polls either on a
fixed interval or on a cron schedule; setting one replaces the other,
and --interval 0 clears both. Prints the updated settings document.`,
		Usage: "nova settings set [flags]",
		Examples: []cli.Example{
			{
				Description: "Stop syncing calendar items",
				Command:     "nova settings set --source calendar --enabled false",
			},
			{
				Description: "Poll the todo feed hourly",
				Command:     "nova settings set --source todo --interval 60",
			},
			{
				Description: "Poll email on weekday mornings only",
				Command:     `nova settings set --source email --schedule "0 7 * * 1-5"`,
			},
			{
				Description: "Set the shared default interval",
				Command:     "nova settings set --interval 30",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("set", &params)
		},
		Run: func(args []string) error {
			if params.Enabled == "" && params.Interval < 0 && params.Schedule == "" {
				return fmt.Errorf("nothing to change: pass --enabled, --interval, or --schedule")
			}
			if params.Interval >= 0 && params.Schedule != "" {
				return fmt.Errorf("pass either --interval or --schedule, not both")
			}

			fields := map[string]any{}
			if params.Source != "" {
				fields["source"] = params.Source
			}
			if params.Enabled != "" {
				enabled, err := strconv.ParseBool(params.Enabled)
				if err != nil {
					return fmt.Errorf("--enabled must be true or false, got %q", params.Enabled)
				}
				fields["enabled"] = enabled
			}
			if params.Interval >= 0 {
				fields["interval_minutes"] = params.Interval
			}
			if params.Schedule != "" {
				fields["schedule"] = params.Schedule
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var values settings.Values
			if err := client.Call(ctx, "settings.set", fields, &values); err != nil {
				return err
			}

			if done, err := params.EmitJSON(values); done {
				return err
			}
			return writeValues(values)
		},
	}
}

// writeValues renders the settings document: the default interval,
// then one row per stored override.
func writeValues(values settings.Values) error {
	if values.DefaultIntervalMinutes > 0 {
		interval := time.Duration(values.DefaultIntervalMinutes) * time.Minute
		fmt.Printf("Default interval: %s\n", interval)
	} else {
		fmt.Printf("Default interval: %s (built-in)\n", settings.FallbackInterval)
	}

	if len(values.Sources) == 0 {
		fmt.Println("No per-source overrides.")
		return nil
	}

	names := make([]string, 0, len(values.Sources))
	for name := range values.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "SOURCE\tENABLED\tINTERVAL\tSCHEDULE\n")
	for _, name := range names {
		override := values.Sources[name]
		enabled := "-"
		if override.Enabled != nil {
			enabled = strconv.FormatBool(*override.Enabled)
		}
		interval := "-"
		if override.IntervalMinutes > 0 {
			interval = (time.Duration(override.IntervalMinutes) * time.Minute).String()
		}
		schedule := "-"
		if override.Schedule != "" {
			schedule = override.Schedule
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", name, enabled, interval, schedule)
	}
	return writer.Flush()
}
