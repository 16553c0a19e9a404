// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package attention

import (
	"math"
	"strings"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/rawfield"
)

// Attention reasons, in evaluation order.
const (
	ReasonSlaBreached   = "sla_breached"
	ReasonSlaNearBreach = "sla_near_breach"
	ReasonOverdueUpdate = "overdue_update"
	ReasonDueSlipped    = "due_slipped"
)

// minUpdateAge is how old a ticket must be before a missing agent
// update counts against it.
const minUpdateAge = 4 * time.Hour

// nearBreachWindow is the remaining-time band treated as "approaching
// breach".
const nearBreachWindow = 2 * time.Hour

// Urgency score weights. The components sum past 100 only in
// pathological cases; the final score is capped.
const (
	breachPoints  = 30.0
	nearBreachMax = 20.0
	overduePoints = 25.0
	priorityMax   = 15.0
	agePoints     = 10.0
	priorityFloor = 15.0
	priorityCeil  = 95.0
	ageWindow     = 7 * 24 * time.Hour
	maxScore      = 100
)

// Result is the composed attention evaluation for one issue.
type Result struct {
	// NeedsAttention is true when any reason fired.
	NeedsAttention bool

	// Reasons lists the fired signals in evaluation order.
	Reasons []string

	// UrgencyScore is the weighted 0-100 urgency.
	UrgencyScore int

	// SlaRemaining is the ongoing cycle's remaining milliseconds
	// (-1 for breached without a figure). HasSla reports whether the
	// issue carried SLA data at all.
	SlaRemaining int64
	HasSla       bool
}

// OverdueUpdate reports whether the issue has gone too long without an
// agent response. True only when all hold: the status is not a
// waiting-on-requestor state, the ticket is at least four hours old
// (missing creation time counts as old enough), no future next-update
// is scheduled, and the last agent update (if any) is not from today.
func OverdueUpdate(issue map[string]any, now time.Time) bool {
	if waitingOnRequestor(rawfield.String(issue, "status")) {
		return false
	}

	if created, ok := rawfield.Time(issue, "created"); ok {
		if now.Sub(created) < minUpdateAge {
			return false
		}
	}

	if next, ok := rawfield.Time(issue, "next_update"); ok {
		if next.After(now) {
			return false
		}
	}

	if last, ok := rawfield.Time(issue, "last_agent_update"); ok {
		if sameLocalDay(last, now) {
			return false
		}
	}

	return true
}

// waitingOnRequestor matches the family of "waiting on customer /
// requestor / reporter" workflow states across trackers.
func waitingOnRequestor(status string) bool {
	s := strings.ToLower(status)
	if !strings.Contains(s, "waiting") {
		return false
	}
	for _, who := range []string{"customer", "requestor", "requester", "reporter"} {
		if strings.Contains(s, who) {
			return true
		}
	}
	return false
}

// ResolutionBreached reports whether any SLA cycle (ongoing or
// completed) is breached, by flag or by negative remaining time.
// Issues without SLA data are never breached.
func ResolutionBreached(issue map[string]any) bool {
	for _, cycle := range slaCycles(issue) {
		if ongoing, ok := cycle["ongoingCycle"].(map[string]any); ok {
			if cycleBreached(ongoing) {
				return true
			}
		}
		if completed, ok := cycle["completedCycles"].([]any); ok {
			for _, entry := range completed {
				if m, ok := entry.(map[string]any); ok && cycleBreached(m) {
					return true
				}
			}
		}
	}
	return false
}

// cycleBreached checks one cycle entry: an explicit breached flag or a
// negative remaining figure.
func cycleBreached(cycle map[string]any) bool {
	if breached, ok := cycle["breached"].(bool); ok && breached {
		return true
	}
	if millis, ok := remainingMillis(cycle); ok && millis < 0 {
		return true
	}
	return false
}

// RemainingMillis returns the ongoing cycle's remaining milliseconds.
// A breached ongoing cycle without a numeric figure reads as -1. The
// second return is false when the issue has no ongoing SLA cycle.
func RemainingMillis(issue map[string]any) (int64, bool) {
	for _, cycle := range slaCycles(issue) {
		ongoing, ok := cycle["ongoingCycle"].(map[string]any)
		if !ok {
			continue
		}
		if millis, ok := remainingMillis(ongoing); ok {
			return millis, true
		}
		if breached, ok := ongoing["breached"].(bool); ok && breached {
			return -1, true
		}
	}
	return 0, false
}

// NearBreach reports whether remaining time is positive and strictly
// under the two-hour window.
func NearBreach(issue map[string]any) bool {
	millis, ok := RemainingMillis(issue)
	return ok && millis > 0 && millis < nearBreachWindow.Milliseconds()
}

// slaCycles extracts the issue's SLA cycle entries. The field holds
// either a single cycle object or a list of them.
func slaCycles(issue map[string]any) []map[string]any {
	entries, ok := rawfield.Slice(issue, "sla")
	if !ok {
		return nil
	}
	var cycles []map[string]any
	for _, entry := range entries {
		if m, ok := entry.(map[string]any); ok {
			cycles = append(cycles, m)
		}
	}
	return cycles
}

// remainingMillis reads remainingTime.millis from a cycle entry.
func remainingMillis(cycle map[string]any) (int64, bool) {
	remaining, ok := cycle["remainingTime"].(map[string]any)
	if !ok {
		return 0, false
	}
	millis, ok := rawfield.Number(remaining, "millis")
	if !ok {
		return 0, false
	}
	return int64(millis), true
}

// UrgencyScore computes the weighted 0-100 urgency for an issue:
// breach contributes 30 (exclusive with a 0-20 linear near-breach
// ramp), an overdue update 25, priority up to 15, and age up to 10
// across the first week.
func UrgencyScore(issue map[string]any, priority int, now time.Time) int {
	score := 0.0

	switch {
	case ResolutionBreached(issue):
		score += breachPoints
	case NearBreach(issue):
		millis, _ := RemainingMillis(issue)
		window := float64(nearBreachWindow.Milliseconds())
		score += nearBreachMax * (window - float64(millis)) / window
	}

	if OverdueUpdate(issue, now) {
		score += overduePoints
	}

	p := float64(priority)
	if p < priorityFloor {
		p = priorityFloor
	}
	if p > priorityCeil {
		p = priorityCeil
	}
	score += (p - priorityFloor) / (priorityCeil - priorityFloor) * priorityMax

	if created, ok := rawfield.Time(issue, "created"); ok {
		age := now.Sub(created)
		if age > ageWindow {
			age = ageWindow
		}
		if age > 0 {
			score += float64(age) / float64(ageWindow) * agePoints
		}
	}

	final := int(math.Round(score))
	if final > maxScore {
		final = maxScore
	}
	return final
}

// DueOK reports whether the issue's due date has not slipped: true
// when there is no (valid) due date, or when now is still before the
// start of the day after the due date, in local time. A due date of
// yesterday fails; today and future dates pass.
func DueOK(issue map[string]any, now time.Time) bool {
	due, ok := rawfield.FirstTime(issue, "duedate", "due_date", "dueDateTime")
	if !ok {
		return true
	}
	return now.Before(startOfNextDay(due))
}

// Evaluate composes the individual signals into one result.
func Evaluate(issue map[string]any, now time.Time, priority int) Result {
	result := Result{
		UrgencyScore: UrgencyScore(issue, priority, now),
	}
	result.SlaRemaining, result.HasSla = RemainingMillis(issue)

	if ResolutionBreached(issue) {
		result.Reasons = append(result.Reasons, ReasonSlaBreached)
	} else if NearBreach(issue) {
		result.Reasons = append(result.Reasons, ReasonSlaNearBreach)
	}
	if OverdueUpdate(issue, now) {
		result.Reasons = append(result.Reasons, ReasonOverdueUpdate)
	}
	if !DueOK(issue, now) {
		result.Reasons = append(result.Reasons, ReasonDueSlipped)
	}

	result.NeedsAttention = len(result.Reasons) > 0
	return result
}

// sameLocalDay reports whether a and b fall on the same local calendar
// day.
func sameLocalDay(a, b time.Time) bool {
	aYear, aMonth, aDay := a.Local().Date()
	bYear, bMonth, bDay := b.Local().Date()
	return aYear == bYear && aMonth == bMonth && aDay == bDay
}

// startOfNextDay returns local midnight after t's calendar day.
func startOfNextDay(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.Local)
}
