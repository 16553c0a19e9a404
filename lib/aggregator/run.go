// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/cron"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// Run performs an initial sweep across all sources and then polls each
// one on its own timer until ctx is cancelled. Blocks for the life of
// the context; always returns nil after a clean drain.
func (a *Aggregator) Run(ctx context.Context) error {
	a.SyncAll(ctx)

	var waitGroup sync.WaitGroup
	for _, source := range a.Sources() {
		waitGroup.Add(1)
		go func(source task.Source, state *sourceState) {
			defer waitGroup.Done()
			a.pollSource(ctx, source, state)
		}(source, a.sources[source])
	}
	waitGroup.Wait()
	return nil
}

// pollSource owns one source's timer. Disabled sources keep their
// timer running and simply skip cycles, so a re-enable takes effect on
// the next tick without plumbing. A source with a cron schedule
// re-arms its timer after every fire; one with an interval just lets
// the ticker repeat.
func (a *Aggregator) pollSource(ctx context.Context, source task.Source, state *sourceState) {
	interval, schedule, expression := a.planSource(source)
	ticker := a.clock.NewTicker(a.wait(source, interval, schedule))
	defer ticker.Stop()
	defer state.setTimer(0, "")
	state.setTimer(interval, expression)

	if expression != "" {
		a.logger.Debug("source timer started",
			"source", string(source),
			"schedule", expression,
		)
	} else {
		a.logger.Debug("source timer started",
			"source", string(source),
			"interval", interval,
		)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := a.SyncSource(ctx, source); err != nil {
				a.logger.Debug("scheduled sync skipped",
					"source", string(source),
					"reason", err,
				)
			}
			if schedule != nil {
				ticker.Reset(a.wait(source, interval, schedule))
			}

		case <-state.reconfigure:
			freshInterval, freshSchedule, freshExpression := a.planSource(source)
			if freshInterval == interval && freshExpression == expression {
				continue
			}
			a.logger.Info("source timer restarted",
				"source", string(source),
				"old_interval", interval,
				"new_interval", freshInterval,
				"old_schedule", expression,
				"new_schedule", freshExpression,
			)
			interval, schedule, expression = freshInterval, freshSchedule, freshExpression
			ticker.Reset(a.wait(source, interval, schedule))
			state.setTimer(interval, expression)
		}
	}
}

// planSource reads the source's polling plan from settings: the
// interval, the compiled cron schedule if one is set, and the raw
// expression. An expression that no longer parses is dropped with a
// warning rather than wedging the timer.
func (a *Aggregator) planSource(source task.Source) (time.Duration, *cron.Schedule, string) {
	interval := a.settings.SyncInterval(source)
	expression := a.settings.SyncSchedule(source)
	if expression == "" {
		return interval, nil, ""
	}
	schedule, err := cron.Parse(expression)
	if err != nil {
		a.logger.Warn("ignoring unparseable sync schedule",
			"source", string(source),
			"schedule", expression,
			"error", err,
		)
		return interval, nil, ""
	}
	return interval, &schedule, expression
}

// wait returns how long the timer sleeps before the next cycle: the
// time to the next cron hit when a schedule is active, else the
// polling interval.
func (a *Aggregator) wait(source task.Source, interval time.Duration, schedule *cron.Schedule) time.Duration {
	if schedule == nil {
		return interval
	}
	now := a.clock.Now()
	next, err := schedule.Next(now)
	if err != nil {
		a.logger.Warn("schedule has no upcoming run, polling by interval instead",
			"source", string(source),
			"error", err,
		)
		return interval
	}
	return next.Sub(now)
}

// Reconfigure prompts every source timer to re-read its interval and
// schedule from settings. Timers whose plan is unchanged are left
// alone; the rest restart. Never blocks.
func (a *Aggregator) Reconfigure() {
	for _, state := range a.sources {
		select {
		case state.reconfigure <- struct{}{}:
		default:
			// A signal is already pending; the loop will read the
			// latest interval when it gets there.
		}
	}
}

// WaitUntilIdle blocks until no source has a cycle in flight, checked
// by acquiring each source's sync lock in turn. Used by tests to wait
// out cycles running on their own goroutines.
func (a *Aggregator) WaitUntilIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for _, state := range a.sources {
		for {
			if state.syncMu.TryLock() {
				state.syncMu.Unlock()
				break
			}
			if time.Now().After(deadline) {
				return false
			}
			time.Sleep(time.Millisecond)
		}
	}
	return true
}
