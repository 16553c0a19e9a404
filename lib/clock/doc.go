// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so code driven
// by timers can be tested deterministically.
//
// Production code takes a Clock instead of calling time.Now, time.After,
// time.NewTicker, or time.Sleep directly. Mains pass Real(); tests pass
// Fake(initial), advance it explicitly, and use WaitForTimers to
// synchronize with goroutines that register timers:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	agg := aggregator.New(aggregator.Config{Clock: c, ...})
//	go agg.Run(ctx)
//	c.WaitForTimers(1)          // a ticker is registered
//	c.Advance(15 * time.Minute) // fire it deterministically
package clock
