// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source identifies the external system a task came from.
type Source string

const (
	SourceIssueTracker Source = "issue-tracker"
	SourcePlanner      Source = "planner"
	SourceTodo         Source = "todo"
	SourceCalendar     Source = "calendar"
	SourceEmail        Source = "email"
	SourceBoard        Source = "spreadsheet-board"
	SourceMilestone    Source = "milestone"
	SourceManual       Source = "manual"
)

// Sources lists every known source in declaration order.
func Sources() []Source {
	return []Source{
		SourceIssueTracker,
		SourcePlanner,
		SourceTodo,
		SourceCalendar,
		SourceEmail,
		SourceBoard,
		SourceMilestone,
		SourceManual,
	}
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceIssueTracker, SourcePlanner, SourceTodo, SourceCalendar,
		SourceEmail, SourceBoard, SourceMilestone, SourceManual:
		return true
	}
	return false
}

// LocallyOwned reports whether rows for s are created by users rather
// than mirrored from upstream. The aggregator never syncs or
// garbage-collects locally-owned sources.
func (s Source) LocallyOwned() bool {
	return s == SourceManual || s == SourceMilestone
}

// Transient reports whether rows for s are per-session views that must
// not survive a service restart. Transient rows are deleted at startup
// and re-fetched on the first cycle.
func (s Source) Transient() bool {
	return s == SourceCalendar || s == SourceEmail
}

// Status is a task's lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusDismissed  Status = "dismissed"
	StatusSnoozed    Status = "snoozed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone, StatusDismissed, StatusSnoozed:
		return true
	}
	return false
}

// LocallySet reports whether s is a status only the user sets. Sources
// never report these: finished upstream items are excluded from ingest
// entirely, so done, dismissed, and snoozed always record a local
// decision that syncs must not clobber.
func (s Status) LocallySet() bool {
	return s == StatusDone || s == StatusDismissed || s == StatusSnoozed
}

// Priority bounds. Priorities are normalized into one 0-100 band across
// sources; DefaultPriority is the band middle used when a source gives
// nothing usable.
const (
	MinPriority     = 0
	MaxPriority     = 100
	DefaultPriority = 50
)

// ClampPriority forces p into the normalized band.
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// ID derives the canonical task identity for a source-scoped record.
func ID(source Source, sourceID string) string {
	return string(source) + ":" + sourceID
}

// SplitID is the inverse of ID. Fails on strings without a separator.
func SplitID(id string) (Source, string, error) {
	source, sourceID, ok := strings.Cut(id, ":")
	if !ok || source == "" || sourceID == "" {
		return "", "", fmt.Errorf("malformed task id %q", id)
	}
	return Source(source), sourceID, nil
}

// Attention is derived urgency/SLA metadata, attached only for sources
// that carry SLA semantics.
type Attention struct {
	// NeedsAttention is true when any reason fired.
	NeedsAttention bool `json:"needs_attention"`

	// Reasons lists why, in evaluation order ("sla_breached",
	// "sla_near_breach", "overdue_update", "due_slipped").
	Reasons []string `json:"reasons,omitempty"`

	// UrgencyScore is the weighted 0-100 urgency.
	UrgencyScore int `json:"urgency_score"`

	// SlaRemainingMillis is the ongoing SLA cycle's remaining time:
	// positive when counting down, -1 for breached-without-figure,
	// nil when the record carries no SLA data.
	SlaRemainingMillis *int64 `json:"sla_remaining_ms,omitempty"`

	// SlaBreachAt is the projected breach instant (evaluation time
	// plus remaining), set only when remaining is positive.
	SlaBreachAt *time.Time `json:"sla_breach_at,omitempty"`
}

// Task is one canonical row in the store.
type Task struct {
	// ID is "source:source_id". Derived, stable, unique.
	ID string `json:"id"`

	Source   Source `json:"source"`
	SourceID string `json:"source_id"`

	// Title is the one-line summary. Required.
	Title string `json:"title"`

	// Description is plain text; HTML from the source is stripped
	// during normalization.
	Description string `json:"description,omitempty"`

	Status Status `json:"status"`

	// Priority is the source-normalized 0-100 band.
	Priority int `json:"priority"`

	// DueDate is when the task is due, if the source carries one.
	DueDate *time.Time `json:"due_date,omitempty"`

	// SourceURL deep-links back to the origin system.
	SourceURL string `json:"source_url,omitempty"`

	// Pinned is the user-local focus flag. Never touched by syncs.
	Pinned bool `json:"is_pinned"`

	// Attention is present only for SLA-bearing sources.
	Attention *Attention `json:"attention,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last time the row's content actually changed;
	// it drives staleness and ordering. Unchanged re-ingests do not
	// move it.
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft is the normalizer's output: the source-derived fields of a
// task, before the store assigns identity and timestamps.
type Draft struct {
	SourceID    string     `json:"source_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
	Attention   *Attention `json:"attention,omitempty"`
}

// Validate checks the draft is complete enough to upsert.
func (d *Draft) Validate() error {
	if d.SourceID == "" {
		return errors.New("task draft: source_id is required")
	}
	if d.Title == "" {
		return errors.New("task draft: title is required")
	}
	if d.Status != "" && !d.Status.Valid() {
		return fmt.Errorf("task draft: unknown status %q", d.Status)
	}
	if d.Priority < MinPriority || d.Priority > MaxPriority {
		return fmt.Errorf("task draft: priority must be %d-%d, got %d", MinPriority, MaxPriority, d.Priority)
	}
	return nil
}

// Validate checks a fully-formed task.
func (t *Task) Validate() error {
	if !t.Source.Valid() {
		return fmt.Errorf("task: unknown source %q", t.Source)
	}
	if t.SourceID == "" {
		return errors.New("task: source_id is required")
	}
	if t.ID != ID(t.Source, t.SourceID) {
		return fmt.Errorf("task: id %q does not match %q", t.ID, ID(t.Source, t.SourceID))
	}
	if t.Title == "" {
		return errors.New("task: title is required")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("task: unknown status %q", t.Status)
	}
	if t.Priority < MinPriority || t.Priority > MaxPriority {
		return fmt.Errorf("task: priority must be %d-%d, got %d", MinPriority, MaxPriority, t.Priority)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("task: created_at is required")
	}
	if t.UpdatedAt.IsZero() {
		return errors.New("task: updated_at is required")
	}
	return nil
}
