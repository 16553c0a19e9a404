// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// --- list ---

type listParams struct {
	cli.Connection
	cli.JSONOutput
	Source    string `flag:"source,s" desc:"filter by source (issue-tracker, planner, todo, calendar, email, spreadsheet-board, milestone, manual)"`
	Status    string `flag:"status" desc:"filter by status (open, in_progress, done, dismissed, snoozed)"`
	Pinned    bool   `flag:"pinned" desc:"only pinned tasks"`
	Attention bool   `flag:"attention" desc:"only tasks flagged for attention"`
	DueBefore string `flag:"due-before" desc:"only tasks due before this RFC 3339 instant"`
	Limit     int    `flag:"limit,n" desc:"maximum rows (0 for all)"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List tasks with optional filters",
		Description: `Query stored tasks with optional filters. All filter flags use AND
semantics: only tasks matching every specified filter are returned.

Results put pinned tasks first, then order by urgency score and
priority descending.`,
		Usage: "nova task list [flags]",
		Examples: []cli.Example{
			{
				Description: "Everything that needs attention right now",
				Command:     "nova task list --attention",
			},
			{
				Description: "Open issue-tracker work, most urgent first",
				Command:     "nova task list --source issue-tracker --status open",
			},
			{
				Description: "The ten most pressing tasks, as JSON",
				Command:     "nova task list --limit 10 --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			fields := map[string]any{}
			if params.Source != "" {
				fields["source"] = params.Source
			}
			if params.Status != "" {
				fields["status"] = params.Status
			}
			if params.Pinned {
				fields["pinned"] = true
			}
			if params.Attention {
				fields["needs_attention"] = true
			}
			if params.DueBefore != "" {
				fields["due_before"] = params.DueBefore
			}
			if params.Limit > 0 {
				fields["limit"] = params.Limit
			}

			var result listResult
			if err := client.Call(ctx, "task.list", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result.Tasks); done {
				return err
			}

			if result.Count == 0 {
				fmt.Println("no tasks found")
				return nil
			}

			return writeTaskTable(result.Tasks)
		},
	}
}

// --- get ---

type getParams struct {
	cli.Connection
	cli.JSONOutput
}

func getCommand() *cli.Command {
	var params getParams

	return &cli.Command{
		Name:    "get",
		Summary: "Show one task in full",
		Usage:   "nova task get <task-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Show a synced tracker task",
				Command:     "nova task get issue-tracker:PROJ-142",
			},
			{
				Description: "Show as JSON",
				Command:     "nova task get manual:7f3a2b --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("get", &params)
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

			var row task.Task
			if err := client.Call(ctx, "task.get", map[string]any{"id": args[0]}, &row); err != nil {
				return err
			}

			if done, err := params.EmitJSON(row); done {
				return err
			}

			return writeTaskDetail(row)
		},
	}
}

// --- search ---

type searchParams struct {
	cli.Connection
	cli.JSONOutput
	Limit int `flag:"limit,n" default:"20" desc:"maximum hits (0 for all)"`
}

func searchCommand() *cli.Command {
	var params searchParams

	return &cli.Command{
		Name:    "search",
		Summary: "Find tasks by free-text query",
		Description: `Rank stored tasks against a free-text query and show the best
matches first. Matching covers the title, source id, description, and
source name; title hits weigh the most. Tasks with no matching word
are left out entirely.`,
		Usage: "nova task search <query...> [flags]",
		Examples: []cli.Example{
			{
				Description: "Everything about the gateway rollout",
				Command:     "nova task search gateway rollout",
			},
			{
				Description: "Find a tracker ticket by key",
				Command:     "nova task search PROJ-142",
			},
			{
				Description: "Top three hits, as JSON",
				Command:     "nova task search renewal --limit 3 --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("search", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("a search query is required")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			fields := map[string]any{"query": strings.Join(args, " ")}
			if params.Limit > 0 {
				fields["limit"] = params.Limit
			}

			var result listResult
			if err := client.Call(ctx, "task.search", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result.Tasks); done {
				return err
			}

			if result.Count == 0 {
				fmt.Println("no matching tasks")
				return nil
			}

			return writeTaskTable(result.Tasks)
		},
	}
}

// writeTaskTable writes a one-line-per-task table.
func writeTaskTable(tasks []task.Task) error {
	writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "ID\tSTATUS\tPRI\tATTN\tDUE\tTITLE\n")
	for _, row := range tasks {
		title := truncate(row.Title, 60)
		if row.Pinned {
			title = "* " + title
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\t%s\n",
			row.ID,
			row.Status,
			row.Priority,
			formatAttentionCell(row.Attention),
			formatDue(row.DueDate),
			title,
		)
	}
	return writer.Flush()
}

// writeTaskDetail writes a human-readable detail view of a task.
func writeTaskDetail(row task.Task) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "ID:\t%s\n", row.ID)
	fmt.Fprintf(writer, "Source:\t%s\n", row.Source)
	fmt.Fprintf(writer, "Title:\t%s\n", row.Title)
	fmt.Fprintf(writer, "Status:\t%s\n", row.Status)
	fmt.Fprintf(writer, "Priority:\t%d\n", row.Priority)
	if row.DueDate != nil {
		fmt.Fprintf(writer, "Due:\t%s\n", row.DueDate.Local().Format(time.RFC1123))
	}
	if row.SourceURL != "" {
		fmt.Fprintf(writer, "Link:\t%s\n", row.SourceURL)
	}
	if row.Pinned {
		fmt.Fprintf(writer, "Pinned:\tyes\n")
	}

	if a := row.Attention; a != nil && a.NeedsAttention {
		fmt.Fprintf(writer, "Attention:\turgency %d (%s)\n",
			a.UrgencyScore, strings.Join(a.Reasons, ", "))
		if a.SlaRemainingMillis != nil {
			fmt.Fprintf(writer, "SLA:\t%s\n", formatSlaRemaining(*a.SlaRemainingMillis))
		}
	}

	fmt.Fprintf(writer, "Created:\t%s\n", row.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(writer, "Updated:\t%s\n", row.UpdatedAt.Local().Format(time.RFC1123))

	if err := writer.Flush(); err != nil {
		return err
	}

	if row.Description != "" {
		fmt.Printf("\n%s\n", row.Description)
	}
	return nil
}

// formatAttentionCell renders the urgency score column, "-" when the
// task carries no attention result or nothing fired.
func formatAttentionCell(a *task.Attention) string {
	if a == nil || !a.NeedsAttention {
		return "-"
	}
	return fmt.Sprintf("%d", a.UrgencyScore)
}

// formatDue renders a due date as a calendar day, "-" when absent.
func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Local().Format("2006-01-02")
}

// formatSlaRemaining renders the remaining SLA time. Negative values
// mean the cycle is already breached.
func formatSlaRemaining(millis int64) string {
	if millis < 0 {
		if millis == -1 {
			return "breached"
		}
		over := time.Duration(-millis) * time.Millisecond
		return fmt.Sprintf("breached %s ago", over.Round(time.Second))
	}
	remaining := time.Duration(millis) * time.Millisecond
	return fmt.Sprintf("%s remaining", remaining.Round(time.Second))
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
