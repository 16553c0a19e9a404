// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/cron"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// FallbackInterval is the polling interval used when neither a
// per-source override nor a stored default exists.
const FallbackInterval = 15 * time.Minute

// MinInterval is the shortest accepted polling interval. Anything
// tighter hammers upstream APIs without making the dashboard fresher.
const MinInterval = time.Minute

// SourceSettings holds the per-source overrides. Zero values mean "no
// override". IntervalMinutes and Schedule are two forms of the same
// override (when to poll), so at most one is ever set.
type SourceSettings struct {
	// Enabled controls whether the source syncs at all. Nil means
	// enabled.
	Enabled *bool `json:"enabled,omitempty"`

	// IntervalMinutes overrides the default polling interval. Zero
	// means use the default.
	IntervalMinutes int `json:"interval_minutes,omitempty"`

	// Schedule polls on a cron expression (5 fields, UTC) instead of
	// a fixed interval. Empty means poll by interval.
	Schedule string `json:"schedule,omitempty"`
}

// Values is the complete settings document as stored on disk.
type Values struct {
	// DefaultIntervalMinutes is the polling interval for sources
	// without an override. Zero means FallbackInterval.
	DefaultIntervalMinutes int `json:"default_interval_minutes,omitempty"`

	// Sources maps source names to their overrides.
	Sources map[string]SourceSettings `json:"sources,omitempty"`
}

// Store is a concurrency-safe settings store, optionally persisted to
// a JSON file. All reads come from memory; every mutation rewrites the
// file atomically before returning.
type Store struct {
	mu     sync.RWMutex
	path   string
	values Values
	logger *slog.Logger
}

// Open loads settings from path, or starts from defaults when the file
// does not exist yet. An empty path gives an in-memory store that
// never touches disk.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store := &Store{
		path:   path,
		logger: logger,
		values: Values{Sources: make(map[string]SourceSettings)},
	}
	if path == "" {
		return store, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &store.values); err != nil {
		return nil, fmt.Errorf("settings: parsing %s: %w", path, err)
	}
	if store.values.Sources == nil {
		store.values.Sources = make(map[string]SourceSettings)
	}
	return store, nil
}

// SourceEnabled reports whether source should sync. Sources are
// enabled unless explicitly disabled.
func (s *Store) SourceEnabled(source task.Source) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	override, ok := s.values.Sources[string(source)]
	if !ok || override.Enabled == nil {
		return true
	}
	return *override.Enabled
}

// SyncInterval returns the polling interval for source: the per-source
// override if set, else the stored default, else FallbackInterval.
func (s *Store) SyncInterval(source task.Source) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if override, ok := s.values.Sources[string(source)]; ok && override.IntervalMinutes > 0 {
		return time.Duration(override.IntervalMinutes) * time.Minute
	}
	if s.values.DefaultIntervalMinutes > 0 {
		return time.Duration(s.values.DefaultIntervalMinutes) * time.Minute
	}
	return FallbackInterval
}

// SyncSchedule returns the cron expression for source, or "" when the
// source polls by interval.
func (s *Store) SyncSchedule(source task.Source) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.values.Sources[string(source)].Schedule
}

// SetSourceEnabled records whether source syncs, and persists.
func (s *Store) SetSourceEnabled(source task.Source, enabled bool) error {
	if !source.Valid() {
		return fmt.Errorf("settings: unknown source %q", source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	override := s.values.Sources[string(source)]
	override.Enabled = &enabled
	s.values.Sources[string(source)] = override
	return s.persistLocked()
}

// SetSyncInterval records a per-source polling interval, and persists.
// Setting an interval replaces any cron schedule. A zero duration
// clears the polling override entirely, interval and schedule both.
func (s *Store) SetSyncInterval(source task.Source, interval time.Duration) error {
	if !source.Valid() {
		return fmt.Errorf("settings: unknown source %q", source)
	}
	if interval != 0 && interval < MinInterval {
		return fmt.Errorf("settings: interval %s below minimum %s", interval, MinInterval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	override := s.values.Sources[string(source)]
	override.IntervalMinutes = int(interval / time.Minute)
	override.Schedule = ""
	s.values.Sources[string(source)] = override
	return s.persistLocked()
}

// SetSourceSchedule records a cron expression for source, and
// persists. Setting a schedule replaces any interval override. An
// empty expression clears the schedule, falling back to interval
// polling.
func (s *Store) SetSourceSchedule(source task.Source, expression string) error {
	if !source.Valid() {
		return fmt.Errorf("settings: unknown source %q", source)
	}
	if expression != "" {
		if _, err := cron.Parse(expression); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	override := s.values.Sources[string(source)]
	override.Schedule = expression
	if expression != "" {
		override.IntervalMinutes = 0
	}
	s.values.Sources[string(source)] = override
	return s.persistLocked()
}

// SetDefaultInterval records the shared polling interval, and
// persists.
func (s *Store) SetDefaultInterval(interval time.Duration) error {
	if interval < MinInterval {
		return fmt.Errorf("settings: interval %s below minimum %s", interval, MinInterval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values.DefaultIntervalMinutes = int(interval / time.Minute)
	return s.persistLocked()
}

// Snapshot returns a copy of the full settings document.
func (s *Store) Snapshot() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := Values{
		DefaultIntervalMinutes: s.values.DefaultIntervalMinutes,
		Sources:                make(map[string]SourceSettings, len(s.values.Sources)),
	}
	for name, override := range s.values.Sources {
		if override.Enabled != nil {
			enabled := *override.Enabled
			override.Enabled = &enabled
		}
		copied.Sources[name] = override
	}
	return copied
}

// persistLocked rewrites the settings file atomically: write to a
// temporary file in the same directory, fsync, rename into place.
// Readers never see a partial write. No-op for in-memory stores.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshaling: %w", err)
	}
	data = append(data, '\n')

	temporaryPath := s.path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("settings: creating temporary file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("settings: writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("settings: syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("settings: closing temporary file: %w", err)
	}

	if err := os.Rename(temporaryPath, s.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("settings: renaming into place: %w", err)
	}

	// Sync the parent directory so the rename survives power loss.
	if parent, err := os.Open(filepath.Dir(s.path)); err == nil {
		parent.Sync()
		parent.Close()
	}

	s.logger.Debug("settings persisted", "path", s.path)
	return nil
}
