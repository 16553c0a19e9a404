// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides shared HTTP and connection I/O helpers.
//
// The response helpers (ReadResponse, DecodeResponse, ErrorBody) bound
// every body read at MaxResponseSize so a misbehaving upstream cannot
// exhaust memory. They are meant for JSON API responses (source feeds,
// the ticket tracker API), not for streaming bodies, which should be
// read incrementally.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response body reads: 64 MB. Real
// feed and tracker responses are orders of magnitude smaller; the
// limit only exists so a pathological response cannot take the process
// down with it.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a JSON API response body (up to MaxResponseSize
// bytes) and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are silently
// ignored; a partial or empty body is still useful in an error
// message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
