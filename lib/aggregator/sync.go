// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Wardy-uk/NOVA-sub001/lib/normalize"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// SyncSource runs one sync cycle for the source. Returns
// ErrUnknownSource when no client is configured, ErrSourceDisabled
// when settings exclude it, and ErrSyncInFlight when a cycle is
// already running. Cycle failures are reported inside the Result, not
// as the error return.
func (a *Aggregator) SyncSource(ctx context.Context, source task.Source) (Result, error) {
	state, ok := a.sources[source]
	if !ok {
		return Result{}, fmt.Errorf("aggregator: sync %s: %w", source, ErrUnknownSource)
	}
	if !a.settings.SourceEnabled(source) {
		return Result{}, fmt.Errorf("aggregator: sync %s: %w", source, ErrSourceDisabled)
	}
	if !state.syncMu.TryLock() {
		return Result{}, fmt.Errorf("aggregator: sync %s: %w", source, ErrSyncInFlight)
	}
	defer state.syncMu.Unlock()

	return a.runCycle(ctx, source, state), nil
}

// SyncAll runs a cycle for every configured, enabled source
// concurrently and returns their results in canonical source order.
// One source's failure never affects another; disabled sources are
// skipped entirely and omitted from the results.
func (a *Aggregator) SyncAll(ctx context.Context) []Result {
	ordered := a.Sources()

	var waitGroup sync.WaitGroup
	results := make([]*Result, len(ordered))
	for i, source := range ordered {
		if !a.settings.SourceEnabled(source) {
			a.logger.Debug("source disabled, skipping", "source", string(source))
			continue
		}

		waitGroup.Add(1)
		go func(i int, source task.Source) {
			defer waitGroup.Done()
			result, err := a.SyncSource(ctx, source)
			if err != nil {
				// Overlap with an already-running cycle; that
				// cycle's result will land in LastResult.
				a.logger.Debug("sync skipped", "source", string(source), "reason", err)
				return
			}
			results[i] = &result
		}(i, source)
	}
	waitGroup.Wait()

	collected := make([]Result, 0, len(ordered))
	for _, result := range results {
		if result != nil {
			collected = append(collected, *result)
		}
	}
	return collected
}

// runCycle executes fetch, normalize, upsert, and the stale pass for
// one source. The caller holds the source's sync lock.
func (a *Aggregator) runCycle(ctx context.Context, source task.Source, state *sourceState) Result {
	result := Result{Source: source, Started: a.clock.Now()}

	fail := func(err error) Result {
		result.Err = err
		result.Error = err.Error()
		result.Finished = a.clock.Now()
		state.setPhase(PhaseError)
		state.recordResult(result)
		a.logger.Error("sync failed",
			"source", string(source),
			"error", err,
		)
		return result
	}

	state.setPhase(PhaseFetching)
	items, err := state.client.Fetch(ctx)
	if err != nil {
		// Short-circuit: a failed fetch must never reach the stale
		// pass, or a flaky upstream would wipe its tasks.
		return fail(fmt.Errorf("fetch %s: %w", source, err))
	}

	state.setPhase(PhaseNormalizing)
	now := a.clock.Now()
	batch := a.store.NewBatch(source)
	for _, raw := range items {
		draft, err := a.registry.Normalize(source, raw, now)
		if errors.Is(err, normalize.ErrSkipItem) {
			result.Skipped++
			continue
		}
		if err != nil {
			result.Malformed++
			a.logger.Warn("malformed record dropped",
				"source", string(source),
				"error", err,
			)
			continue
		}
		batch.Add(draft)
	}

	state.setPhase(PhaseReconciling)
	freshIDs := batch.IDs()
	counts, err := batch.Flush(ctx)
	if err != nil {
		return fail(fmt.Errorf("upsert %s: %w", source, err))
	}
	result.Count = len(freshIDs)
	result.Inserted = counts.Inserted
	result.Updated = counts.Updated
	result.Unchanged = counts.Unchanged

	if !source.LocallyOwned() {
		removed, err := a.store.DeleteStaleBySource(ctx, source, freshIDs)
		if err != nil {
			return fail(fmt.Errorf("stale pass %s: %w", source, err))
		}
		result.Removed = removed
	}

	result.Finished = a.clock.Now()
	state.setPhase(PhaseIdle)
	state.recordResult(result)

	a.logger.Info("source synced",
		"source", string(source),
		"count", result.Count,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"removed", result.Removed,
		"skipped", result.Skipped,
		"malformed", result.Malformed,
		"duration", result.Finished.Sub(result.Started),
	)
	return result
}
