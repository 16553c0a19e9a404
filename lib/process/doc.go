// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers shared by the Nova
// binaries. It centralizes the one raw I/O pattern that legitimately
// lives outside the structured logger: fatal error reporting from
// main(), where the logger may not be initialized yet.
package process
