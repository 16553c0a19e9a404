// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/netutil"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// defaultTimeout bounds a single fetch, connection to last byte.
const defaultTimeout = 30 * time.Second

// itemListKeys are the wrapper keys tried, in order, when a feed
// returns an object instead of a bare array.
var itemListKeys = []string{"value", "items", "issues", "records", "tasks"}

// Config describes one upstream feed endpoint.
type Config struct {
	// Source names the upstream this client feeds. Required, and must
	// not be a locally-owned source.
	Source task.Source

	// URL is the full endpoint returning the item list. Required.
	// HTTPS is enforced except for loopback hosts.
	URL string

	// Token is sent as a bearer token when non-empty.
	Token string

	// Timeout bounds each fetch. Defaults to 30 seconds.
	Timeout time.Duration

	// HTTPClient is used for all requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives fetch diagnostics. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// FeedClient fetches a JSON item list from one upstream endpoint.
// Safe for concurrent use.
type FeedClient struct {
	source     task.Source
	url        string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// APIError is a non-2xx response from an upstream feed.
type APIError struct {
	Source     task.Source
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s feed: HTTP %d: %s", e.Source, e.StatusCode, e.Body)
}

// NewFeedClient validates the configuration and returns a feed client.
func NewFeedClient(cfg Config) (*FeedClient, error) {
	if !cfg.Source.Valid() {
		return nil, fmt.Errorf("source: unknown source %q", cfg.Source)
	}
	if cfg.Source.LocallyOwned() {
		return nil, fmt.Errorf("source: %s is locally owned and has no feed", cfg.Source)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("source: %s: URL is required", cfg.Source)
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("source: %s: parsing URL: %w", cfg.Source, err)
	}
	switch parsed.Scheme {
	case "https":
	case "http":
		// Plain HTTP only for local development loops.
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return nil, fmt.Errorf("source: %s: feed requires HTTPS (got %q)", cfg.Source, cfg.URL)
		}
	default:
		return nil, fmt.Errorf("source: %s: unsupported scheme %q", cfg.Source, parsed.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &FeedClient{
		source:     cfg.Source,
		url:        cfg.URL,
		token:      cfg.Token,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Source returns the source this client feeds.
func (c *FeedClient) Source() task.Source {
	return c.source
}

// Fetch retrieves the current item list from the feed. Returns every
// raw record the upstream reports; an empty list is a valid result
// meaning "nothing lives upstream".
func (c *FeedClient) Fetch(ctx context.Context) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("source: %s: creating request: %w", c.source, err)
	}
	request.Header.Set("Accept", "application/json")
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", c.source, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &APIError{
			Source:     c.source,
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("source: %s: reading response: %w", c.source, err)
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", c.source, err)
	}

	c.logger.Debug("feed fetched",
		"source", string(c.source),
		"items", len(items),
	)
	return items, nil
}

// decodeItems extracts the item list from a feed response: either a
// bare JSON array, or an object wrapping the array under a well-known
// key.
func decodeItems(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	if trimmed[0] == '[' {
		var items []map[string]any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding item array: %w", err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response object: %w", err)
	}
	for _, key := range itemListKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var items []map[string]any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decoding %q list: %w", key, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("response object has no item list (looked for %v)", itemListKeys)
}
