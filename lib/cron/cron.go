// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a compiled cron expression. The zero value matches
// nothing; build one with Parse.
type Schedule struct {
	minutes     bitset64
	hours       bitset64
	daysOfMonth bitset64
	months      bitset64
	daysOfWeek  bitset64
}

// bitset64 packs a set of small integers into one machine word.
type bitset64 uint64

func (b bitset64) has(value int) bool { return b&(1<<uint(value)) != 0 }
func (b *bitset64) set(value int)     { *b |= 1 << uint(value) }

// Parse compiles a 5-field cron expression. Malformed terms and
// out-of-range values are rejected.
func Parse(expression string) (Schedule, error) {
	fields := strings.Fields(expression)
	if len(fields) != 5 {
		return Schedule{}, fmt.Errorf("cron: expected 5 fields (minute hour day-of-month month day-of-week), got %d", len(fields))
	}

	var schedule Schedule
	for i, spec := range []struct {
		name    string
		minimum int
		maximum int
		bits    *bitset64
	}{
		{"minute", 0, 59, &schedule.minutes},
		{"hour", 0, 23, &schedule.hours},
		{"day-of-month", 1, 31, &schedule.daysOfMonth},
		{"month", 1, 12, &schedule.months},
		{"day-of-week", 0, 6, &schedule.daysOfWeek},
	} {
		parsed, err := parseField(fields[i], spec.minimum, spec.maximum)
		if err != nil {
			return Schedule{}, fmt.Errorf("cron: %s field: %w", spec.name, err)
		}
		*spec.bits = parsed
	}
	return schedule, nil
}

// Next returns the earliest time strictly after t that matches the
// schedule. Evaluation is in UTC.
//
// An impossible schedule (February 31) never matches. Next stops
// searching four years out and returns an error instead of spinning.
func (s Schedule) Next(t time.Time) (time.Time, error) {
	cursor := t.UTC().Truncate(time.Minute).Add(time.Minute)
	limit := cursor.AddDate(4, 0, 0)

	for cursor.Before(limit) {
		if !s.months.has(int(cursor.Month())) {
			// time.Date normalizes month 13 into January next year.
			cursor = time.Date(cursor.Year(), cursor.Month()+1, 1, 0, 0, 0, 0, time.UTC)
			continue
		}

		// Both day fields must match. A wildcard parses to a full
		// bitset, so an unrestricted field never blocks a day.
		if !s.daysOfMonth.has(cursor.Day()) || !s.daysOfWeek.has(int(cursor.Weekday())) {
			cursor = time.Date(cursor.Year(), cursor.Month(), cursor.Day()+1, 0, 0, 0, 0, time.UTC)
			continue
		}

		if !s.hours.has(cursor.Hour()) {
			cursor = time.Date(cursor.Year(), cursor.Month(), cursor.Day(), cursor.Hour()+1, 0, 0, 0, time.UTC)
			continue
		}

		if !s.minutes.has(cursor.Minute()) {
			cursor = cursor.Add(time.Minute)
			continue
		}

		return cursor, nil
	}

	return time.Time{}, fmt.Errorf("cron: no matching time within 4 years of %s", t.UTC().Format(time.RFC3339))
}

// parseField expands one field, a comma list of terms, into a bitset.
func parseField(field string, minimum, maximum int) (bitset64, error) {
	var bits bitset64
	for _, term := range strings.Split(field, ",") {
		expanded, err := parseTerm(term, minimum, maximum)
		if err != nil {
			return 0, err
		}
		bits |= expanded
	}
	if bits == 0 {
		return 0, fmt.Errorf("field %q produces empty set", field)
	}
	return bits, nil
}

// parseTerm expands one term: "*", "N", or "A-B", each with an
// optional "/step" suffix.
func parseTerm(term string, minimum, maximum int) (bitset64, error) {
	base, stepText, hasStep := strings.Cut(term, "/")
	step := 1
	if hasStep {
		parsed, err := strconv.Atoi(stepText)
		if err != nil {
			return 0, fmt.Errorf("invalid step %q: %w", stepText, err)
		}
		if parsed <= 0 {
			return 0, fmt.Errorf("step must be positive, got %d", parsed)
		}
		step = parsed
	}

	first, last := minimum, maximum
	if base != "*" {
		startText, endText, isRange := strings.Cut(base, "-")
		start, err := strconv.Atoi(startText)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q: %w", startText, err)
		}
		first, last = start, start
		if isRange {
			end, err := strconv.Atoi(endText)
			if err != nil {
				return 0, fmt.Errorf("invalid range end %q: %w", endText, err)
			}
			if start > end {
				return 0, fmt.Errorf("range start %d > end %d", start, end)
			}
			last = end
		}
	}

	if first < minimum || last > maximum {
		return 0, fmt.Errorf("value out of range [%d-%d]: got %d-%d", minimum, maximum, first, last)
	}

	var bits bitset64
	for value := first; value <= last; value += step {
		bits.set(value)
	}
	return bits, nil
}
