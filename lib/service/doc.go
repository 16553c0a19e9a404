// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the socket protocol between the Nova
// daemon and its clients.
//
// The daemon listens on a Unix socket and serves a CBOR
// request-response protocol: each connection carries exactly one
// request and one response. Requests are CBOR maps with an "action"
// field naming the operation plus handler-specific fields; responses
// are a {ok, error, data} envelope. CBOR is self-delimiting, so no
// framing protocol is needed.
//
//   - [SocketServer] dispatches requests to registered [ActionFunc]
//     handlers, with connection timeouts, bounded reads, and graceful
//     drain of in-flight handlers on shutdown.
//   - [ServiceClient] is the matching caller, used by the CLI. Each
//     [ServiceClient.Call] opens a fresh connection.
//
// The daemon registers its actions in its own main package; this
// package provides the transport, not the API surface.
//
// # Authentication
//
// There is none at the protocol level. Nova is a single-user hub: the
// socket file is created with owner-only permissions, and filesystem
// access is the trust boundary. Anything that can open the socket may
// do anything the CLI can do.
package service
