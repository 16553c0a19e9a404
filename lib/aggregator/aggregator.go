// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/clock"
	"github.com/Wardy-uk/NOVA-sub001/lib/normalize"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
	"github.com/Wardy-uk/NOVA-sub001/lib/taskstore"
)

// ErrSyncInFlight is returned when a sync is requested for a source
// that already has a cycle running.
var ErrSyncInFlight = errors.New("sync already in flight")

// ErrSourceDisabled is returned when a sync is requested for a source
// the user has disabled in settings.
var ErrSourceDisabled = errors.New("source disabled")

// ErrUnknownSource is returned when a sync is requested for a source
// with no configured client.
var ErrUnknownSource = errors.New("no client for source")

// Client fetches raw records from one upstream system. Fetch returns
// the complete current set of ingestible records; the aggregator
// treats anything absent from it as gone upstream.
type Client interface {
	Source() task.Source
	Fetch(ctx context.Context) ([]map[string]any, error)
}

// Settings supplies the user-tunable sync preferences. Implemented by
// lib/settings.
type Settings interface {
	SourceEnabled(source task.Source) bool
	SyncInterval(source task.Source) time.Duration
	SyncSchedule(source task.Source) string
}

// Phase is a source's position in its sync cycle.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhaseNormalizing Phase = "normalizing"
	PhaseReconciling Phase = "reconciling"
	PhaseError       Phase = "error"
)

// Result reports the outcome of one sync cycle.
type Result struct {
	Source task.Source `json:"source"`

	// Count is the number of live items the source reported this
	// cycle (normalized and upserted, whether or not they changed).
	Count int `json:"count"`

	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`

	// Removed is the number of stored tasks deleted because upstream
	// no longer reports them.
	Removed int `json:"removed"`

	// Skipped counts records the source reported as finished;
	// Malformed counts records that failed normalization.
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Err is the cycle's failure, nil on success. It is not part of
	// the JSON shape; Error carries the message across the wire.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Config holds the dependencies for an aggregator.
type Config struct {
	Store    *taskstore.Store
	Registry *normalize.Registry
	Settings Settings
	Clients  []Client
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Aggregator owns the per-source sync state. Safe for concurrent use.
type Aggregator struct {
	store    *taskstore.Store
	registry *normalize.Registry
	settings Settings
	clock    clock.Clock
	logger   *slog.Logger

	sources map[task.Source]*sourceState
}

// sourceState tracks one source's cycle. syncMu is held for the whole
// cycle; TryLock on it is what makes overlapping requests fail fast.
type sourceState struct {
	client Client

	syncMu sync.Mutex

	mu          sync.Mutex
	phase       Phase
	lastResult  *Result
	interval    time.Duration
	schedule    string
	reconfigure chan struct{}
}

// New validates the configuration and returns an aggregator. Each
// source may have at most one client.
func New(cfg Config) (*Aggregator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("aggregator: Store is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("aggregator: Registry is required")
	}
	if cfg.Settings == nil {
		return nil, fmt.Errorf("aggregator: Settings is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("aggregator: Clock is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sources := make(map[task.Source]*sourceState, len(cfg.Clients))
	for _, client := range cfg.Clients {
		source := client.Source()
		if !source.Valid() {
			return nil, fmt.Errorf("aggregator: client reports unknown source %q", source)
		}
		if source.LocallyOwned() {
			return nil, fmt.Errorf("aggregator: source %q is locally owned and cannot have a client", source)
		}
		if _, exists := sources[source]; exists {
			return nil, fmt.Errorf("aggregator: duplicate client for source %q", source)
		}
		sources[source] = &sourceState{
			client:      client,
			phase:       PhaseIdle,
			reconfigure: make(chan struct{}, 1),
		}
	}

	return &Aggregator{
		store:    cfg.Store,
		registry: cfg.Registry,
		settings: cfg.Settings,
		clock:    cfg.Clock,
		logger:   logger,
		sources:  sources,
	}, nil
}

// Sources returns the configured sources in canonical order.
func (a *Aggregator) Sources() []task.Source {
	var configured []task.Source
	for _, source := range task.Sources() {
		if _, ok := a.sources[source]; ok {
			configured = append(configured, source)
		}
	}
	return configured
}

// State returns the source's current cycle phase. Unconfigured sources
// report idle.
func (a *Aggregator) State(source task.Source) Phase {
	state, ok := a.sources[source]
	if !ok {
		return PhaseIdle
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.phase
}

// LastResult returns the source's most recent cycle result, if any
// cycle has completed.
func (a *Aggregator) LastResult(source task.Source) (Result, bool) {
	state, ok := a.sources[source]
	if !ok {
		return Result{}, false
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.lastResult == nil {
		return Result{}, false
	}
	return *state.lastResult, true
}

// ActiveInterval returns the interval the source's timer is currently
// running at, and whether the timer is running. Settings changes only
// reach the timer through Reconfigure, so this can lag SyncInterval.
func (a *Aggregator) ActiveInterval(source task.Source) (time.Duration, bool) {
	state, ok := a.sources[source]
	if !ok {
		return 0, false
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.interval, state.interval > 0
}

// ActiveSchedule returns the cron expression the source's timer is
// currently following, or "" when it polls by interval.
func (a *Aggregator) ActiveSchedule(source task.Source) string {
	state, ok := a.sources[source]
	if !ok {
		return ""
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.schedule
}

func (s *sourceState) setTimer(interval time.Duration, schedule string) {
	s.mu.Lock()
	s.interval = interval
	s.schedule = schedule
	s.mu.Unlock()
}

func (s *sourceState) setPhase(phase Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}

func (s *sourceState) recordResult(result Result) {
	s.mu.Lock()
	s.lastResult = &result
	s.mu.Unlock()
}
