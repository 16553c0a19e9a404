// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/netutil"
)

// defaultTimeout bounds each tracker call. Onboarding runs issue many
// calls in sequence; one hung request must not stall the whole run.
const defaultTimeout = 30 * time.Second

// Config holds configuration for creating an HTTPClient.
type Config struct {
	// BaseURL is the root URL for API requests, without a trailing
	// slash. Required. Must use HTTPS except for loopback hosts.
	BaseURL string

	// Token is the bearer token presented on every request. Required.
	Token string

	// Timeout bounds each call. Defaults to 30 seconds.
	Timeout time.Duration

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// HTTPClient implements Client against the JSON contract described in
// the package documentation.
type HTTPClient struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient validates the configuration and returns a tracker
// client.
func NewHTTPClient(config Config) (*HTTPClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("tracker: BaseURL is required")
	}
	if config.Token == "" {
		return nil, fmt.Errorf("tracker: Token is required")
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("tracker: parsing BaseURL: %w", err)
	}
	switch parsed.Scheme {
	case "https":
	case "http":
		// Plain HTTP only for local development loops.
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return nil, fmt.Errorf("tracker: API client requires HTTPS (got %q)", config.BaseURL)
		}
	default:
		return nil, fmt.Errorf("tracker: unsupported scheme %q", parsed.Scheme)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &HTTPClient{
		baseURL:    baseURL,
		token:      config.Token,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Search returns the issues matching a query. A query that matches
// nothing returns an empty slice.
func (client *HTTPClient) Search(ctx context.Context, query string, fields []string) ([]Issue, error) {
	values := url.Values{}
	values.Set("query", query)
	if len(fields) > 0 {
		values.Set("fields", strings.Join(fields, ","))
	}

	var page struct {
		Issues []Issue `json:"issues"`
	}
	if err := client.do(ctx, http.MethodGet, "/issues?"+values.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return page.Issues, nil
}

// Create creates an issue and returns its tracker-assigned key.
func (client *HTTPClient) Create(ctx context.Context, fields Fields) (string, error) {
	if fields.Summary == "" {
		return "", fmt.Errorf("tracker: create: summary is required")
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := client.do(ctx, http.MethodPost, "/issues", fields, &created); err != nil {
		return "", err
	}
	if created.Key == "" {
		return "", fmt.Errorf("tracker: create returned no issue key")
	}

	client.logger.Info("tracker issue created",
		"key", created.Key,
		"summary", fields.Summary,
	)
	return created.Key, nil
}

// Get fetches a single issue by key. Returns ErrNotFound when the
// tracker has no issue with that key.
func (client *HTTPClient) Get(ctx context.Context, key string, fields []string) (Issue, error) {
	path := "/issues/" + url.PathEscape(key)
	if len(fields) > 0 {
		path += "?fields=" + url.QueryEscape(strings.Join(fields, ","))
	}

	var issue Issue
	if err := client.do(ctx, http.MethodGet, path, nil, &issue); err != nil {
		var apiError *APIError
		if errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound {
			return Issue{}, fmt.Errorf("tracker: issue %s: %w", key, ErrNotFound)
		}
		return Issue{}, err
	}
	return issue, nil
}

// CreateLink records a directed link between two existing issues.
func (client *HTTPClient) CreateLink(ctx context.Context, link Link) error {
	if link.Type == "" || link.Inward == "" || link.Outward == "" {
		return fmt.Errorf("tracker: link requires type, inward, and outward keys")
	}
	if err := client.do(ctx, http.MethodPost, "/links", link, nil); err != nil {
		return err
	}
	client.logger.Debug("tracker link created",
		"type", link.Type,
		"inward", link.Inward,
		"outward", link.Outward,
	)
	return nil
}

// do executes one authenticated API request. The request body is
// JSON-encoded from requestBody (pass nil for none) and the response
// decoded into result (pass nil to discard). Non-2xx responses return
// an *APIError.
func (client *HTTPClient) do(ctx context.Context, method, path string, requestBody, result any) error {
	ctx, cancel := context.WithTimeout(ctx, client.timeout)
	defer cancel()

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("tracker: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("tracker: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+client.token)
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("tracker: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("tracker: reading response body: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return parseAPIErrorFromBody(response.StatusCode, body)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("tracker: decoding response: %w", err)
		}
	}
	return nil
}
