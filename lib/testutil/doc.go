// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Nova packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// individual tests do not need direct time.After calls; these are the
// only intended wall-clock waits in the test suite.
//
// [SocketDir] creates a short-pathed temporary directory for unix
// domain sockets, which are limited to 108-byte paths (sun_path in
// sockaddr_un) that t.TempDir() can exceed under some runners.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation (onboarding refs, source IDs).
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
