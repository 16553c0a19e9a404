// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"strings"

	"github.com/Wardy-uk/NOVA-sub001/lib/rawfield"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// statusFromRaw normalizes a source's status vocabulary. The skip
// return is true for finished items (percent-complete 100 or a
// "completed" family word), which must not be ingested at all.
//
// The percent-complete field takes precedence when present: 0 is open,
// 100 is finished, anything in between is in progress.
func statusFromRaw(raw map[string]any) (status task.Status, skip bool) {
	if percent, ok := rawfield.Number(raw, "percentComplete"); ok {
		switch {
		case percent >= 100:
			return "", true
		case percent > 0:
			return task.StatusInProgress, false
		default:
			return task.StatusOpen, false
		}
	}
	return statusFromText(rawfield.String(raw, "status"))
}

// statusFromText maps a textual status to the canonical enum.
// "Waiting on others" and "deferred" deliberately read as open: the
// item still needs local attention even though upstream parked it.
func statusFromText(text string) (status task.Status, skip bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	switch {
	case s == "":
		return task.StatusOpen, false
	case strings.Contains(s, "complete"), strings.Contains(s, "done"),
		strings.Contains(s, "closed"), strings.Contains(s, "resolved"):
		return "", true
	case strings.Contains(s, "waiting"), strings.Contains(s, "deferred"),
		strings.Contains(s, "not started"), strings.Contains(s, "notstarted"),
		s == "new", s == "open", s == "todo", s == "backlog":
		return task.StatusOpen, false
	case strings.Contains(s, "progress"), strings.Contains(s, "started"),
		s == "active", s == "doing", s == "review":
		return task.StatusInProgress, false
	default:
		return task.StatusOpen, false
	}
}

// priorityFromRaw coerces the priority field into the normalized band.
// Missing values, empty strings, and unparseable text all read as the
// default; numeric strings parse; a handful of tracker words map to
// fixed bands. Values are clamped by the registry's finishing pass.
func priorityFromRaw(raw map[string]any, key string) int {
	v, ok := rawfield.Get(raw, key)
	if !ok {
		return task.DefaultPriority
	}
	if s, isString := v.(string); isString {
		if banded, ok := priorityFromText(s); ok {
			return banded
		}
	}
	if n, ok := rawfield.Number(raw, key); ok {
		return int(n)
	}
	return task.DefaultPriority
}

// priorityFromText maps tracker priority names to bands.
func priorityFromText(text string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "highest", "urgent", "critical", "blocker":
		return 90, true
	case "high":
		return 70, true
	case "medium", "normal":
		return task.DefaultPriority, true
	case "low":
		return 30, true
	case "lowest", "trivial", "minor":
		return 20, true
	default:
		return 0, false
	}
}
