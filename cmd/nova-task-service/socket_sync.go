// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/aggregator"
	"github.com/Wardy-uk/NOVA-sub001/lib/codec"
)

// --- Request types ---

// syncRunRequest is the request for the "sync.run" action.
type syncRunRequest struct {
	Source string `cbor:"source"`
}

// settingsSetRequest is the request for the "settings.set" action. An
// empty source targets the shared default interval; a named source
// takes a per-source enable flag plus an interval or cron schedule
// override. At least one change must be present.
type settingsSetRequest struct {
	Source  string `cbor:"source,omitempty"`
	Enabled *bool  `cbor:"enabled,omitempty"`

	// IntervalMinutes sets the polling interval. Zero clears a
	// per-source override; the shared default cannot be cleared.
	IntervalMinutes *int `cbor:"interval_minutes,omitempty"`

	// Schedule sets a per-source cron expression. Empty clears it.
	Schedule *string `cbor:"schedule,omitempty"`
}

// --- Response types ---
//
// Sync cycle outcomes cross the wire as aggregator.Result values,
// encoded by their json tags.

// syncAllResponse is the response for the "sync.all" action.
type syncAllResponse struct {
	Results []aggregator.Result `cbor:"results"`
}

// syncStatusEntry is one source's sync state in the "sync.status"
// response.
type syncStatusEntry struct {
	Source  string `cbor:"source"`
	Enabled bool   `cbor:"enabled"`
	Phase   string `cbor:"phase"`

	// IntervalSeconds is the live poll timer period, zero when the
	// timer is not running.
	IntervalSeconds float64 `cbor:"interval_seconds,omitempty"`

	// Schedule is the cron expression the timer follows, empty for
	// plain interval polling.
	Schedule string `cbor:"schedule,omitempty"`

	// LastResult is the most recent cycle's outcome, absent before
	// the first cycle.
	LastResult *aggregator.Result `cbor:"last_result,omitempty"`
}

// syncStatusResponse is the response for the "sync.status" action.
type syncStatusResponse struct {
	Sources []syncStatusEntry `cbor:"sources"`
}

// handleSyncRun runs one synchronous sync cycle for a single source
// and returns its outcome. Fails fast when a cycle for the source is
// already in flight, when the source is disabled, or when no feed is
// configured for it.
func (h *taskHub) handleSyncRun(ctx context.Context, raw []byte) (any, error) {
	var request syncRunRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	source, err := parseSource(request.Source)
	if err != nil {
		return nil, err
	}

	result, err := h.aggregator.SyncSource(ctx, source)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// handleSyncAll sweeps every configured source once and returns the
// per-source outcomes. Disabled and in-flight sources are skipped.
func (h *taskHub) handleSyncAll(ctx context.Context, raw []byte) (any, error) {
	return syncAllResponse{Results: h.aggregator.SyncAll(ctx)}, nil
}

// handleSyncStatus reports each configured source's phase, live timer
// interval, and last cycle outcome.
func (h *taskHub) handleSyncStatus(ctx context.Context, raw []byte) (any, error) {
	sources := h.aggregator.Sources()
	entries := make([]syncStatusEntry, 0, len(sources))
	for _, source := range sources {
		entry := syncStatusEntry{
			Source:  string(source),
			Enabled: h.settings.SourceEnabled(source),
			Phase:   string(h.aggregator.State(source)),
		}
		if interval, ok := h.aggregator.ActiveInterval(source); ok {
			entry.IntervalSeconds = interval.Seconds()
		}
		entry.Schedule = h.aggregator.ActiveSchedule(source)
		if result, ok := h.aggregator.LastResult(source); ok {
			entry.LastResult = &result
		}
		entries = append(entries, entry)
	}
	return syncStatusResponse{Sources: entries}, nil
}

// handleSettingsGet returns the full settings document.
func (h *taskHub) handleSettingsGet(ctx context.Context, raw []byte) (any, error) {
	return h.settings.Snapshot(), nil
}

// handleSettingsSet applies one settings change, prompts the sync
// timers to re-read their plans, and returns the updated document.
func (h *taskHub) handleSettingsSet(ctx context.Context, raw []byte) (any, error) {
	var request settingsSetRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Enabled == nil && request.IntervalMinutes == nil && request.Schedule == nil {
		return nil, fmt.Errorf("nothing to change: set enabled, interval_minutes, and/or schedule")
	}
	if request.IntervalMinutes != nil && request.Schedule != nil {
		return nil, fmt.Errorf("set either interval_minutes or schedule, not both")
	}

	if request.Source == "" {
		if request.Enabled != nil {
			return nil, fmt.Errorf("enabled requires a source")
		}
		if request.Schedule != nil {
			return nil, fmt.Errorf("schedule requires a source")
		}
		interval := time.Duration(*request.IntervalMinutes) * time.Minute
		if err := h.settings.SetDefaultInterval(interval); err != nil {
			return nil, err
		}
	} else {
		source, err := parseSource(request.Source)
		if err != nil {
			return nil, err
		}
		if request.Enabled != nil {
			if err := h.settings.SetSourceEnabled(source, *request.Enabled); err != nil {
				return nil, err
			}
		}
		if request.IntervalMinutes != nil {
			interval := time.Duration(*request.IntervalMinutes) * time.Minute
			if err := h.settings.SetSyncInterval(source, interval); err != nil {
				return nil, err
			}
		}
		if request.Schedule != nil {
			if err := h.settings.SetSourceSchedule(source, *request.Schedule); err != nil {
				return nil, err
			}
		}
	}

	h.aggregator.Reconfigure()

	attrs := []any{"source", request.Source}
	if request.Enabled != nil {
		attrs = append(attrs, "enabled", *request.Enabled)
	}
	if request.IntervalMinutes != nil {
		attrs = append(attrs, "interval_minutes", *request.IntervalMinutes)
	}
	if request.Schedule != nil {
		attrs = append(attrs, "schedule", *request.Schedule)
	}
	h.logger.Info("settings changed", attrs...)

	return h.settings.Snapshot(), nil
}
