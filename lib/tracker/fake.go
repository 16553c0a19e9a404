// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Fake is an in-memory Client for tests. Created issues get sequential
// keys under their project prefix. Failures are injected per method,
// with Create failures scoped to a summary substring so a single child
// in a batch can be made to fail.
type Fake struct {
	mu     sync.Mutex
	nextID int
	issues []*Issue
	byKey  map[string]*Issue
	links  []Link

	searchCalls int
	createCalls int
	linkCalls   int

	searchErr error
	linkErr   error
	createErr map[string]error
}

// NewFake returns an empty fake tracker.
func NewFake() *Fake {
	return &Fake{
		nextID:    1,
		byKey:     make(map[string]*Issue),
		createErr: make(map[string]error),
	}
}

// Seed adds an issue directly, bypassing Create's call counting and
// failure injection. Returns the assigned key.
func (f *Fake) Seed(summary string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.add("X", summary)
}

// SeedLink records a link directly, bypassing CreateLink.
func (f *Fake) SeedLink(link Link) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = append(f.links, link)
}

// FailSearch makes every Search call return err.
func (f *Fake) FailSearch(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchErr = err
}

// FailCreate makes Create return err for any issue whose summary
// contains the given substring. A nil err clears the failure.
func (f *Fake) FailCreate(summarySubstring string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.createErr, summarySubstring)
		return
	}
	f.createErr[summarySubstring] = err
}

// FailLinks makes every CreateLink call return err.
func (f *Fake) FailLinks(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkErr = err
}

// SearchCalls returns the number of Search invocations.
func (f *Fake) SearchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

// CreateCalls returns the number of Create invocations, including ones
// that failed.
func (f *Fake) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

// LinkCalls returns the number of CreateLink invocations.
func (f *Fake) LinkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.linkCalls
}

// Issues returns a snapshot of all issues in creation order.
func (f *Fake) Issues() []Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := make([]Issue, 0, len(f.issues))
	for _, issue := range f.issues {
		snapshot = append(snapshot, *issue)
	}
	return snapshot
}

// Links returns a snapshot of all recorded links.
func (f *Fake) Links() []Link {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.links)
}

// Search matches the one query form SummaryQuery produces, a literal
// substring match on the summary. Any other query is an error so tests
// catch malformed queries instead of silently matching nothing.
func (f *Fake) Search(ctx context.Context, query string, fields []string) ([]Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	quoted, found := strings.CutPrefix(query, "summary~")
	if !found {
		return nil, fmt.Errorf("fake tracker: unsupported query %q", query)
	}
	text, err := strconv.Unquote(quoted)
	if err != nil {
		return nil, fmt.Errorf("fake tracker: unsupported query %q", query)
	}

	var matches []Issue
	for _, issue := range f.issues {
		if strings.Contains(issue.Summary, text) {
			matches = append(matches, f.render(issue, fields))
		}
	}
	return matches, nil
}

// Create assigns the next key under the project prefix and stores the
// issue.
func (f *Fake) Create(ctx context.Context, fields Fields) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	for substring, err := range f.createErr {
		if strings.Contains(fields.Summary, substring) {
			return "", err
		}
	}

	project := fields.Project
	if project == "" {
		project = "X"
	}
	return f.add(project, fields.Summary), nil
}

// Get returns the issue with the given key, or ErrNotFound.
func (f *Fake) Get(ctx context.Context, key string, fields []string) (Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.byKey[key]
	if !ok {
		return Issue{}, fmt.Errorf("fake tracker: issue %s: %w", key, ErrNotFound)
	}
	return f.render(issue, fields), nil
}

// CreateLink records the link. Both ends must exist.
func (f *Fake) CreateLink(ctx context.Context, link Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	if f.linkErr != nil {
		return f.linkErr
	}
	if _, ok := f.byKey[link.Inward]; !ok {
		return fmt.Errorf("fake tracker: link inward %s: %w", link.Inward, ErrNotFound)
	}
	if _, ok := f.byKey[link.Outward]; !ok {
		return fmt.Errorf("fake tracker: link outward %s: %w", link.Outward, ErrNotFound)
	}
	f.links = append(f.links, link)
	return nil
}

// add stores a new issue and returns its key. Caller holds f.mu.
func (f *Fake) add(project, summary string) string {
	key := fmt.Sprintf("%s-%d", project, f.nextID)
	f.nextID++
	issue := &Issue{Key: key, Summary: summary, Status: "open"}
	f.issues = append(f.issues, issue)
	f.byKey[key] = issue
	return key
}

// render copies an issue for return, attaching links only when the
// links field was requested, the way the HTTP contract behaves.
// Caller holds f.mu.
func (f *Fake) render(issue *Issue, fields []string) Issue {
	rendered := Issue{Key: issue.Key, Summary: issue.Summary, Status: issue.Status}
	if slices.Contains(fields, FieldLinks) {
		for _, link := range f.links {
			if link.Inward == issue.Key || link.Outward == issue.Key {
				rendered.Links = append(rendered.Links, link)
			}
		}
	}
	return rendered
}
