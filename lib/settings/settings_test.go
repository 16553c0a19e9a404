// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

func TestDefaults(t *testing.T) {
	store, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if !store.SourceEnabled(task.SourceCalendar) {
		t.Error("sources should default to enabled")
	}
	if got := store.SyncInterval(task.SourceCalendar); got != FallbackInterval {
		t.Errorf("SyncInterval = %v, want %v", got, FallbackInterval)
	}
}

func TestOverrides(t *testing.T) {
	store, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.SetSourceEnabled(task.SourceEmail, false); err != nil {
		t.Fatalf("SetSourceEnabled: %v", err)
	}
	if store.SourceEnabled(task.SourceEmail) {
		t.Error("email still enabled after disable")
	}
	if !store.SourceEnabled(task.SourceCalendar) {
		t.Error("disable leaked to another source")
	}

	if err := store.SetSyncInterval(task.SourceIssueTracker, 5*time.Minute); err != nil {
		t.Fatalf("SetSyncInterval: %v", err)
	}
	if got := store.SyncInterval(task.SourceIssueTracker); got != 5*time.Minute {
		t.Errorf("SyncInterval = %v, want 5m", got)
	}

	if err := store.SetDefaultInterval(30 * time.Minute); err != nil {
		t.Fatalf("SetDefaultInterval: %v", err)
	}
	if got := store.SyncInterval(task.SourceCalendar); got != 30*time.Minute {
		t.Errorf("default SyncInterval = %v, want 30m", got)
	}
	// The per-source override still wins.
	if got := store.SyncInterval(task.SourceIssueTracker); got != 5*time.Minute {
		t.Errorf("override SyncInterval = %v, want 5m", got)
	}
}

func TestClearIntervalOverride(t *testing.T) {
	store, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.SetSyncInterval(task.SourceTodo, 5*time.Minute); err != nil {
		t.Fatalf("SetSyncInterval: %v", err)
	}
	if err := store.SetSyncInterval(task.SourceTodo, 0); err != nil {
		t.Fatalf("clear SetSyncInterval: %v", err)
	}
	if got := store.SyncInterval(task.SourceTodo); got != FallbackInterval {
		t.Errorf("SyncInterval = %v, want fallback after clear", got)
	}
}

func TestScheduleReplacesInterval(t *testing.T) {
	store, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.SetSyncInterval(task.SourceEmail, 5*time.Minute); err != nil {
		t.Fatalf("SetSyncInterval: %v", err)
	}
	if err := store.SetSourceSchedule(task.SourceEmail, "0 7 * * 1-5"); err != nil {
		t.Fatalf("SetSourceSchedule: %v", err)
	}

	if got := store.SyncSchedule(task.SourceEmail); got != "0 7 * * 1-5" {
		t.Errorf("SyncSchedule = %q, want the stored expression", got)
	}
	// The interval override is gone, so the default applies again.
	if got := store.SyncInterval(task.SourceEmail); got != FallbackInterval {
		t.Errorf("SyncInterval = %v, want fallback after schedule set", got)
	}

	// And the other way around.
	if err := store.SetSyncInterval(task.SourceEmail, 10*time.Minute); err != nil {
		t.Fatalf("second SetSyncInterval: %v", err)
	}
	if got := store.SyncSchedule(task.SourceEmail); got != "" {
		t.Errorf("SyncSchedule = %q, want cleared after interval set", got)
	}
}

func TestClearSchedule(t *testing.T) {
	store, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.SetSourceSchedule(task.SourceMilestone, "30 8 * * *"); err != nil {
		t.Fatalf("SetSourceSchedule: %v", err)
	}
	if err := store.SetSourceSchedule(task.SourceMilestone, ""); err != nil {
		t.Fatalf("clear SetSourceSchedule: %v", err)
	}
	if got := store.SyncSchedule(task.SourceMilestone); got != "" {
		t.Errorf("SyncSchedule = %q, want empty after clear", got)
	}
}

func TestRejectsBadInput(t *testing.T) {
	store, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.SetSourceEnabled(task.Source("bogus"), true); err == nil {
		t.Error("unknown source accepted")
	}
	if err := store.SetSyncInterval(task.SourceTodo, 10*time.Second); err == nil {
		t.Error("sub-minute interval accepted")
	}
	if err := store.SetDefaultInterval(0); err == nil {
		t.Error("zero default interval accepted")
	}
	if err := store.SetSourceSchedule(task.SourceTodo, "not a cron line"); err == nil {
		t.Error("malformed cron expression accepted")
	}
	if err := store.SetSourceSchedule(task.Source("bogus"), "0 7 * * *"); err == nil {
		t.Error("unknown source accepted for schedule")
	}
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.SetSourceEnabled(task.SourceEmail, false); err != nil {
		t.Fatalf("SetSourceEnabled: %v", err)
	}
	if err := store.SetSyncInterval(task.SourcePlanner, 10*time.Minute); err != nil {
		t.Fatalf("SetSyncInterval: %v", err)
	}
	if err := store.SetSourceSchedule(task.SourceCalendar, "*/15 9-17 * * *"); err != nil {
		t.Fatalf("SetSourceSchedule: %v", err)
	}

	reloaded, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reloaded.SourceEnabled(task.SourceEmail) {
		t.Error("disable not persisted")
	}
	if got := reloaded.SyncInterval(task.SourcePlanner); got != 10*time.Minute {
		t.Errorf("interval not persisted, got %v", got)
	}
	if got := reloaded.SyncSchedule(task.SourceCalendar); got != "*/15 9-17 * * *" {
		t.Errorf("schedule not persisted, got %q", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.SetSourceEnabled(task.SourceEmail, false); err != nil {
		t.Fatalf("SetSourceEnabled: %v", err)
	}

	snapshot := store.Snapshot()
	*snapshot.Sources[string(task.SourceEmail)].Enabled = true

	if store.SourceEnabled(task.SourceEmail) {
		t.Error("mutating the snapshot leaked into the store")
	}
}
