// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"errors"
	"fmt"
)

// LinkTypeBlocks is the relationship the onboarding orchestrator records
// between child and parent tickets: the outward issue blocks the inward
// one.
const LinkTypeBlocks = "blocks"

// Field names accepted by the search and get endpoints' fields
// parameter.
const (
	FieldSummary = "summary"
	FieldStatus  = "status"
	FieldLinks   = "links"
)

// ErrNotFound is returned by Get when no issue has the requested key.
var ErrNotFound = errors.New("issue not found")

// Client is the surface the onboarding orchestrator needs from an
// external issue tracker. Search returns an empty slice, not an error,
// when nothing matches; errors are reserved for transport and auth
// failures.
type Client interface {
	Search(ctx context.Context, query string, fields []string) ([]Issue, error)
	Create(ctx context.Context, fields Fields) (string, error)
	Get(ctx context.Context, key string, fields []string) (Issue, error)
	CreateLink(ctx context.Context, link Link) error
}

// Issue is a ticket in the external tracker. Links is populated only
// when the links field was requested.
type Issue struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Status  string `json:"status,omitempty"`
	Links   []Link `json:"links,omitempty"`
}

// LinkedFrom reports whether the issue already records a link of the
// given type whose outward side is key.
func (issue Issue) LinkedFrom(linkType, key string) bool {
	for _, link := range issue.Links {
		if link.Type == linkType && link.Outward == key {
			return true
		}
	}
	return false
}

// Fields describes an issue to create.
type Fields struct {
	// Project is the tracker-side project key new issues land in.
	Project string `json:"project,omitempty"`

	// Type is the tracker-side issue type name, for example "Task".
	Type string `json:"type,omitempty"`

	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Link is a directed relationship between two issues: the outward issue
// stands in the Type relation to the inward one ("X blocks Y" has X
// outward, Y inward).
type Link struct {
	Type    string `json:"type"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// SummaryQuery builds a search query matching issues whose summary
// contains text as a literal substring.
func SummaryQuery(text string) string {
	return fmt.Sprintf("summary~%q", text)
}
