// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// APIError represents a non-2xx response from the tracker API. The
// tracker returns structured JSON error bodies with a message and
// optional field-level validation failures.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from the tracker.
	Message string

	// FieldErrors maps field names to validation messages. Present
	// only on validation failures.
	FieldErrors map[string]string
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "tracker: HTTP %d: %s", err.StatusCode, err.Message)
	fields := make([]string, 0, len(err.FieldErrors))
	for field := range err.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(&builder, "; %s: %s", field, err.FieldErrors[field])
	}
	return builder.String()
}

// parseAPIErrorFromBody parses a tracker API error from a status code
// and response body. Falls back to the raw body when it is not the
// structured error shape.
func parseAPIErrorFromBody(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error != "" {
		apiError.Message = wireError.Error
		apiError.FieldErrors = wireError.Fields
	} else {
		apiError.Message = strings.TrimSpace(string(body))
	}

	return apiError
}
