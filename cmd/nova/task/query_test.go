// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"testing"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

func TestFormatSlaRemaining_BreachedWithoutFigure(t *testing.T) {
	if got := formatSlaRemaining(-1); got != "breached" {
		t.Errorf("formatSlaRemaining(-1) = %q, want %q", got, "breached")
	}
}

func TestFormatSlaRemaining_BreachedWithFigure(t *testing.T) {
	// 90 seconds past the deadline.
	got := formatSlaRemaining(-90000)
	if got != "breached 1m30s ago" {
		t.Errorf("formatSlaRemaining(-90000) = %q, want %q", got, "breached 1m30s ago")
	}
}

func TestFormatSlaRemaining_Remaining(t *testing.T) {
	got := formatSlaRemaining(3600000)
	if got != "1h0m0s remaining" {
		t.Errorf("formatSlaRemaining(3600000) = %q, want %q", got, "1h0m0s remaining")
	}
}

func TestFormatAttentionCell(t *testing.T) {
	if got := formatAttentionCell(nil); got != "-" {
		t.Errorf("nil attention = %q, want -", got)
	}
	if got := formatAttentionCell(&task.Attention{NeedsAttention: false, UrgencyScore: 10}); got != "-" {
		t.Errorf("quiet attention = %q, want -", got)
	}
	if got := formatAttentionCell(&task.Attention{NeedsAttention: true, UrgencyScore: 72}); got != "72" {
		t.Errorf("firing attention = %q, want 72", got)
	}
}

func TestFormatDue(t *testing.T) {
	if got := formatDue(nil); got != "-" {
		t.Errorf("nil due = %q, want -", got)
	}
	// Noon local time so the calendar day is timezone-stable.
	due := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	if got := formatDue(&due); got != "2026-03-14" {
		t.Errorf("formatDue = %q, want 2026-03-14", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 60); got != "short" {
		t.Errorf("truncate passthrough = %q", got)
	}
	if got := truncate("exactly-ten", 11); got != "exactly-ten" {
		t.Errorf("truncate at limit = %q", got)
	}
	if got := truncate("a long task title that keeps going", 10); got != "a long ..." {
		t.Errorf("truncate = %q, want %q", got, "a long ...")
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Errorf("truncate tiny limit = %q, want abc", got)
	}
}
