// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package cron evaluates the 5-field cron expressions accepted as
// sync schedule overrides.
//
// The grammar is the classic one:
//
//	┌───────────── minute (0-59)
//	│ ┌───────────── hour (0-23)
//	│ │ ┌───────────── day of month (1-31)
//	│ │ │ ┌───────────── month (1-12)
//	│ │ │ │ ┌───────────── day of week (0-6, 0 = Sunday)
//	│ │ │ │ │
//	* * * * *
//
// Each field takes single values (5), lists (1,3,5), ranges (1-5),
// steps (*/15, 1-30/5), and the * wildcard. Everything evaluates in
// UTC. There is no seconds field, no named months or days, and no
// @daily shortcuts.
package cron
