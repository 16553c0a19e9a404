// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Wardy-uk/NOVA-sub001/lib/service"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
	"github.com/Wardy-uk/NOVA-sub001/lib/version"
)

// errOnboardingDisabled is returned by onboarding actions when no
// tracker is configured.
var errOnboardingDisabled = errors.New("onboarding is not configured: set tracker.base_url and tracker.project in nova.yaml")

// registerActions registers all socket API actions on the server.
// There is no caller authentication; the socket file's permissions are
// the trust boundary.
func (h *taskHub) registerActions(server *service.SocketServer) {
	server.Handle("ping", h.handlePing)
	server.Handle("status", h.handleStatus)
	server.Handle("sources", h.handleSources)

	server.Handle("task.list", h.handleTaskList)
	server.Handle("task.search", h.handleTaskSearch)
	server.Handle("task.get", h.handleTaskGet)
	server.Handle("task.create", h.handleTaskCreate)
	server.Handle("task.set-status", h.handleTaskSetStatus)
	server.Handle("task.pin", h.handleTaskPin)
	server.Handle("task.delete", h.handleTaskDelete)
	server.Handle("attention.evaluate", h.handleAttentionEvaluate)

	server.Handle("sync.run", h.handleSyncRun)
	server.Handle("sync.all", h.handleSyncAll)
	server.Handle("sync.status", h.handleSyncStatus)
	server.Handle("settings.get", h.handleSettingsGet)
	server.Handle("settings.set", h.handleSettingsSet)

	server.Handle("onboarding.run", h.handleOnboardingRun)
	server.Handle("onboarding.show", h.handleOnboardingShow)
	server.Handle("onboarding.recent", h.handleOnboardingRecent)
	server.Handle("onboarding.matrix", h.handleOnboardingMatrix)
	server.Handle("onboarding.reload-matrix", h.handleOnboardingReloadMatrix)

	server.Handle("snapshot.export", h.handleSnapshotExport)
	server.Handle("snapshot.import", h.handleSnapshotImport)
}

// parseSource validates a source name from a request.
func parseSource(name string) (task.Source, error) {
	source := task.Source(name)
	if !source.Valid() {
		return "", fmt.Errorf("unknown source %q", name)
	}
	return source, nil
}

// parseStatus validates a status name from a request.
func parseStatus(name string) (task.Status, error) {
	status := task.Status(name)
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", name)
	}
	return status, nil
}

// --- Response types ---

// pingResponse is the response to the "ping" action: liveness only.
type pingResponse struct {
	UptimeSeconds float64 `cbor:"uptime_seconds"`
}

// statusResponse is the response to the "status" action.
type statusResponse struct {
	Version       string  `cbor:"version"`
	Environment   string  `cbor:"environment"`
	UptimeSeconds float64 `cbor:"uptime_seconds"`

	// TotalTasks is the stored row count across all sources;
	// TaskCounts breaks it down by source (sources with no rows are
	// absent).
	TotalTasks int            `cbor:"total_tasks"`
	TaskCounts map[string]int `cbor:"task_counts"`

	// Onboarding reports whether the ticket workflow is wired.
	Onboarding bool `cbor:"onboarding"`
}

// sourceEntry describes one syncable source in the "sources" response.
type sourceEntry struct {
	Name    string `cbor:"name"`
	Enabled bool   `cbor:"enabled"`
	Phase   string `cbor:"phase"`

	// IntervalSeconds is the live poll timer period, zero when the
	// timer is not running.
	IntervalSeconds float64 `cbor:"interval_seconds,omitempty"`

	// Schedule is the cron expression the timer follows, empty for
	// plain interval polling.
	Schedule string `cbor:"schedule,omitempty"`
}

// sourcesResponse lists the sources this hub can sync plus the
// locally-owned sources rows can exist under.
type sourcesResponse struct {
	Synced       []sourceEntry `cbor:"synced"`
	LocallyOwned []string      `cbor:"locally_owned"`
}

// handlePing returns a minimal liveness response.
func (h *taskHub) handlePing(ctx context.Context, raw []byte) (any, error) {
	return pingResponse{
		UptimeSeconds: h.clock.Now().Sub(h.startedAt).Seconds(),
	}, nil
}

// handleStatus returns diagnostic information about the service.
func (h *taskHub) handleStatus(ctx context.Context, raw []byte) (any, error) {
	counts, err := h.store.CountBySource(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	taskCounts := make(map[string]int, len(counts))
	for source, count := range counts {
		taskCounts[string(source)] = count
		total += count
	}

	return statusResponse{
		Version:       version.Info(),
		Environment:   string(h.config.Environment),
		UptimeSeconds: h.clock.Now().Sub(h.startedAt).Seconds(),
		TotalTasks:    total,
		TaskCounts:    taskCounts,
		Onboarding:    h.orchestrator != nil,
	}, nil
}

// handleSources describes every source the hub knows about: the
// configured feeds with their live sync state, and the locally-owned
// sources whose rows only user actions create.
func (h *taskHub) handleSources(ctx context.Context, raw []byte) (any, error) {
	sources := h.aggregator.Sources()
	synced := make([]sourceEntry, 0, len(sources))
	for _, src := range sources {
		entry := sourceEntry{
			Name:    string(src),
			Enabled: h.settings.SourceEnabled(src),
			Phase:   string(h.aggregator.State(src)),
		}
		if interval, ok := h.aggregator.ActiveInterval(src); ok {
			entry.IntervalSeconds = interval.Seconds()
		}
		entry.Schedule = h.aggregator.ActiveSchedule(src)
		synced = append(synced, entry)
	}

	var local []string
	for _, src := range task.Sources() {
		if src.LocallyOwned() {
			local = append(local, string(src))
		}
	}

	return sourcesResponse{Synced: synced, LocallyOwned: local}, nil
}
