// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"fmt"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/attention"
	"github.com/Wardy-uk/NOVA-sub001/lib/rawfield"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// Email priority bands: plain mail sits below the default band, flagged
// mail above it.
const (
	emailDefaultPriority  = 40
	emailElevatedPriority = 70
)

// normalizeIssueTracker handles tracker issues: key/summary naming,
// textual priorities, and SLA fields. It is the one strategy that
// attaches attention metadata, since only the tracker carries SLA
// semantics.
func normalizeIssueTracker(raw map[string]any, now time.Time) (task.Draft, error) {
	status, skip := statusFromText(rawfield.String(raw, "status"))
	if skip {
		return task.Draft{}, fmt.Errorf("tracker issue resolved: %w", ErrSkipItem)
	}

	priority := priorityFromRaw(raw, "priority")

	draft := task.Draft{
		SourceID:    rawfield.FirstString(raw, "key", "id", "source_id"),
		Title:       rawfield.FirstString(raw, "summary", "title"),
		Description: StripHTML(rawfield.FirstString(raw, "description")),
		Status:      status,
		Priority:    priority,
		SourceURL:   rawfield.FirstString(raw, "url", "self"),
	}
	if due, ok := rawfield.FirstTime(raw, "duedate", "due_date"); ok {
		draft.DueDate = &due
	}

	result := attention.Evaluate(raw, now, priority)
	draft.Attention = attentionFromResult(result, now)
	return draft, nil
}

// attentionFromResult converts an evaluation into the stored shape,
// projecting the breach instant from the remaining time.
func attentionFromResult(result attention.Result, now time.Time) *task.Attention {
	info := &task.Attention{
		NeedsAttention: result.NeedsAttention,
		Reasons:        result.Reasons,
		UrgencyScore:   result.UrgencyScore,
	}
	if result.HasSla {
		remaining := result.SlaRemaining
		info.SlaRemainingMillis = &remaining
		if remaining > 0 {
			breachAt := now.Add(time.Duration(remaining) * time.Millisecond)
			info.SlaBreachAt = &breachAt
		}
	}
	return info
}

// normalizePlanner handles planner buckets: percent-complete status and
// an inverted 0-10 priority scale (lower is more urgent upstream).
func normalizePlanner(raw map[string]any, _ time.Time) (task.Draft, error) {
	status, skip := statusFromRaw(raw)
	if skip {
		return task.Draft{}, fmt.Errorf("planner task complete: %w", ErrSkipItem)
	}

	priority := task.DefaultPriority
	if p, ok := rawfield.Number(raw, "priority"); ok {
		priority = int(100 - p*10)
	}

	draft := task.Draft{
		SourceID:  rawfield.FirstString(raw, "id", "source_id"),
		Title:     rawfield.FirstString(raw, "title", "subject", "name"),
		Status:    status,
		Priority:  priority,
		SourceURL: rawfield.FirstString(raw, "webUrl", "url"),
	}
	if due, ok := rawfield.FirstTime(raw, "dueDateTime", "due_date"); ok {
		draft.DueDate = &due
	}
	return draft, nil
}

// normalizeTodo handles todo-list items: textual status plus a
// low/normal/high importance band.
func normalizeTodo(raw map[string]any, _ time.Time) (task.Draft, error) {
	status, skip := statusFromRaw(raw)
	if skip {
		return task.Draft{}, fmt.Errorf("todo item complete: %w", ErrSkipItem)
	}

	priority := task.DefaultPriority
	switch rawfield.String(raw, "importance") {
	case "low":
		priority = 30
	case "high":
		priority = emailElevatedPriority
	}

	draft := task.Draft{
		SourceID:    rawfield.FirstString(raw, "id", "source_id"),
		Title:       rawfield.FirstString(raw, "title", "subject"),
		Description: StripHTML(bodyText(raw)),
		Status:      status,
		Priority:    priority,
		SourceURL:   rawfield.FirstString(raw, "webUrl", "url"),
	}
	if due, ok := rawfield.FirstTime(raw, "dueDateTime", "due_date"); ok {
		draft.DueDate = &due
	}
	return draft, nil
}

// normalizeCalendar maps events: subject becomes the title, the start
// time becomes the due date, and priority sits at the moderate band.
func normalizeCalendar(raw map[string]any, _ time.Time) (task.Draft, error) {
	draft := task.Draft{
		SourceID:    rawfield.FirstString(raw, "id", "source_id"),
		Title:       rawfield.FirstString(raw, "subject", "title"),
		Description: StripHTML(bodyText(raw)),
		Status:      task.StatusOpen,
		Priority:    task.DefaultPriority,
		SourceURL:   rawfield.FirstString(raw, "webLink", "url"),
	}
	if start, ok := rawfield.FirstTime(raw, "start", "startDateTime"); ok {
		draft.DueDate = &start
	}
	return draft, nil
}

// normalizeEmail maps messages: subject becomes the title, bodies are
// stripped to text, and high-importance flags raise the priority band.
func normalizeEmail(raw map[string]any, _ time.Time) (task.Draft, error) {
	priority := emailDefaultPriority
	if rawfield.String(raw, "importance") == "high" {
		priority = emailElevatedPriority
	}

	return task.Draft{
		SourceID:    rawfield.FirstString(raw, "id", "source_id"),
		Title:       rawfield.FirstString(raw, "subject", "title"),
		Description: StripHTML(bodyText(raw)),
		Status:      task.StatusOpen,
		Priority:    priority,
		SourceURL:   rawfield.FirstString(raw, "webLink", "url"),
	}, nil
}

// normalizeGeneric is the fallback for unregistered sources and
// already-canonical records: direct fields first, then common guesses.
func normalizeGeneric(raw map[string]any, _ time.Time) (task.Draft, error) {
	status, skip := statusFromRaw(raw)
	if skip {
		return task.Draft{}, fmt.Errorf("item complete: %w", ErrSkipItem)
	}

	draft := task.Draft{
		SourceID:    rawfield.FirstString(raw, "source_id", "id", "key"),
		Title:       rawfield.FirstString(raw, "title", "subject", "name"),
		Description: StripHTML(rawfield.FirstString(raw, "description", "body")),
		Status:      status,
		Priority:    priorityFromRaw(raw, "priority"),
		SourceURL:   rawfield.FirstString(raw, "source_url", "url", "webUrl", "webLink"),
	}
	if due, ok := rawfield.FirstTime(raw, "due_date", "dueDateTime", "duedate", "due"); ok {
		draft.DueDate = &due
	}
	return draft, nil
}

// bodyText extracts a message body: either a {"contentType", "content"}
// object or a plain bodyPreview/body string.
func bodyText(raw map[string]any) string {
	if body, ok := rawfield.Map(raw, "body"); ok {
		if content := rawfield.String(body, "content"); content != "" {
			return content
		}
	}
	return rawfield.FirstString(raw, "bodyPreview", "body", "description")
}
