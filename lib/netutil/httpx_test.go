// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"
)

func TestReadResponse(t *testing.T) {
	body, err := ReadResponse(strings.NewReader(`{"ok":true}`))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("body = %q", body)
	}
}

func TestDecodeResponse(t *testing.T) {
	var decoded struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	err := DecodeResponse(strings.NewReader(`{"name":"sync","count":3}`), &decoded)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if decoded.Name != "sync" || decoded.Count != 3 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestDecodeResponseBadJSON(t *testing.T) {
	var decoded map[string]any
	if err := DecodeResponse(strings.NewReader(`{"name":`), &decoded); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestErrorBody(t *testing.T) {
	if got := ErrorBody(strings.NewReader("upstream exploded")); got != "upstream exploded" {
		t.Fatalf("ErrorBody = %q", got)
	}
}

func TestIsExpectedCloseError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"EOF", io.EOF, true},
		{"net.ErrClosed", net.ErrClosed, true},
		{"EPIPE", syscall.EPIPE, true},
		{"ECONNRESET", syscall.ECONNRESET, true},
		{"other errno", syscall.EACCES, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, c := range cases {
		if got := IsExpectedCloseError(c.err); got != c.want {
			t.Errorf("%s: IsExpectedCloseError = %v, want %v", c.name, got, c.want)
		}
	}
}
