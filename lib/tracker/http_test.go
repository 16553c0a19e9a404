// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHTTPClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(Config{
		BaseURL: server.URL,
		Token:   "tracker-token",
	})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return client
}

func TestSearch(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/issues" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tracker-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("query"); got != `summary~"Onboarding REF-1"` {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("fields"); got != "summary" {
			t.Errorf("fields = %q", got)
		}
		w.Write([]byte(`{"issues":[{"key":"OB-1","summary":"Onboarding REF-1 - Acme"}]}`))
	}))

	issues, err := client.Search(context.Background(), SummaryQuery("Onboarding REF-1"), []string{FieldSummary})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(issues) != 1 || issues[0].Key != "OB-1" {
		t.Fatalf("issues = %v", issues)
	}
}

func TestSearchEmptyResult(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"issues":[]}`))
	}))

	issues, err := client.Search(context.Background(), SummaryQuery("nothing"), nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
}

func TestCreate(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/issues" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var fields Fields
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if fields.Project != "OB" || fields.Summary != "Onboarding REF-2 - Initech" {
			t.Errorf("fields = %+v", fields)
		}
		w.Write([]byte(`{"key":"OB-7"}`))
	}))

	key, err := client.Create(context.Background(), Fields{
		Project: "OB",
		Type:    "Task",
		Summary: "Onboarding REF-2 - Initech",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if key != "OB-7" {
		t.Fatalf("key = %q, want OB-7", key)
	}
}

func TestCreateRejectsEmptySummary(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent for an invalid draft")
	}))

	if _, err := client.Create(context.Background(), Fields{Project: "OB"}); err == nil {
		t.Fatal("expected error for empty summary")
	}
}

func TestCreateMissingKeyInResponse(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	if _, err := client.Create(context.Background(), Fields{Summary: "x"}); err == nil {
		t.Fatal("expected error for response without a key")
	}
}

func TestGetWithLinks(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/issues/OB-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("fields"); got != "summary,links" {
			t.Errorf("fields = %q", got)
		}
		w.Write([]byte(`{"key":"OB-1","summary":"parent","links":[{"type":"blocks","inward":"OB-1","outward":"OB-2"}]}`))
	}))

	issue, err := client.Get(context.Background(), "OB-1", []string{FieldSummary, FieldLinks})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !issue.LinkedFrom(LinkTypeBlocks, "OB-2") {
		t.Error("LinkedFrom(blocks, OB-2) = false, want true")
	}
	if issue.LinkedFrom(LinkTypeBlocks, "OB-3") {
		t.Error("LinkedFrom(blocks, OB-3) = true, want false")
	}
}

func TestGetNotFound(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such issue"}`))
	}))

	_, err := client.Get(context.Background(), "OB-404", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateLink(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/links" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var link Link
		if err := json.NewDecoder(r.Body).Decode(&link); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if link != (Link{Type: "blocks", Inward: "OB-1", Outward: "OB-2"}) {
			t.Errorf("link = %+v", link)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.CreateLink(context.Background(), Link{Type: LinkTypeBlocks, Inward: "OB-1", Outward: "OB-2"})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
}

func TestCreateLinkRejectsIncomplete(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent for an incomplete link")
	}))

	if err := client.CreateLink(context.Background(), Link{Type: LinkTypeBlocks, Inward: "OB-1"}); err == nil {
		t.Fatal("expected error for link without an outward key")
	}
}

func TestAPIErrorParsing(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid issue","fields":{"project":"unknown project"}}`))
	}))

	_, err := client.Create(context.Background(), Fields{Summary: "x"})
	var apiError *APIError
	if !errors.As(err, &apiError) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiError.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", apiError.StatusCode)
	}
	if apiError.Message != "invalid issue" {
		t.Errorf("Message = %q", apiError.Message)
	}
	if apiError.FieldErrors["project"] != "unknown project" {
		t.Errorf("FieldErrors = %v", apiError.FieldErrors)
	}
	if !strings.Contains(apiError.Error(), "project: unknown project") {
		t.Errorf("Error() = %q", apiError.Error())
	}
}

func TestAPIErrorUnstructuredBody(t *testing.T) {
	client := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))

	_, err := client.Search(context.Background(), SummaryQuery("x"), nil)
	var apiError *APIError
	if !errors.As(err, &apiError) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiError.Message != "upstream exploded" {
		t.Errorf("Message = %q", apiError.Message)
	}
}

func TestNewHTTPClientValidation(t *testing.T) {
	if _, err := NewHTTPClient(Config{Token: "t"}); err == nil {
		t.Error("missing BaseURL accepted")
	}
	if _, err := NewHTTPClient(Config{BaseURL: "https://tracker.example.com"}); err == nil {
		t.Error("missing Token accepted")
	}
	if _, err := NewHTTPClient(Config{BaseURL: "http://tracker.example.com", Token: "t"}); err == nil {
		t.Error("plain HTTP on a non-loopback host accepted")
	}
	if _, err := NewHTTPClient(Config{BaseURL: "ftp://tracker.example.com", Token: "t"}); err == nil {
		t.Error("non-HTTP scheme accepted")
	}
	if _, err := NewHTTPClient(Config{BaseURL: "https://tracker.example.com/", Token: "t"}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
