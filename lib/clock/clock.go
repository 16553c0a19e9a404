// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations the service depends on.
// Production code injects Real(); tests inject Fake() and control time
// explicitly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks on C every d.
	// Panics if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Ticker delivers periodic ticks on C. The channel has capacity 1;
// ticks a slow consumer misses are dropped, not queued. Call Stop when
// done with the ticker.
type Ticker struct {
	C <-chan time.Time

	stop  func()
	reset func(time.Duration)
}

// Stop turns the ticker off. No further ticks are sent on C. Stop does
// not close C.
func (t *Ticker) Stop() { t.stop() }

// Reset changes the interval and restarts the tick cycle; the next tick
// arrives after the new duration.
func (t *Ticker) Reset(d time.Duration) { t.reset(d) }
