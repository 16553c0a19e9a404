// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// ErrSkipItem marks a raw item that is valid but must not be ingested
// (the source reports it finished). Callers test with errors.Is and
// drop the item without counting a failure.
var ErrSkipItem = errors.New("item not ingestible")

// Func converts one raw record into a task draft. now is the
// evaluation instant for strategies that attach attention metadata.
type Func func(raw map[string]any, now time.Time) (task.Draft, error)

// Registry dispatches raw records to per-source strategies and applies
// the common finishing pass (validation, priority clamp, URL
// synthesis).
type Registry struct {
	mu           sync.RWMutex
	strategies   map[task.Source]Func
	urlTemplates map[task.Source]string
}

// NewRegistry returns a registry pre-populated with the built-in
// strategies. urlTemplates maps sources to deep-link templates with an
// "{id}" placeholder, used when a raw item carries no link of its own;
// pass nil for no synthesis.
func NewRegistry(urlTemplates map[task.Source]string) *Registry {
	r := &Registry{
		strategies:   make(map[task.Source]Func),
		urlTemplates: make(map[task.Source]string),
	}
	for source, template := range urlTemplates {
		r.urlTemplates[source] = template
	}

	r.Register(task.SourceIssueTracker, normalizeIssueTracker)
	r.Register(task.SourcePlanner, normalizePlanner)
	r.Register(task.SourceTodo, normalizeTodo)
	r.Register(task.SourceCalendar, normalizeCalendar)
	r.Register(task.SourceEmail, normalizeEmail)
	return r
}

// Register installs (or replaces) the strategy for source.
func (r *Registry) Register(source task.Source, fn Func) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[source] = fn
}

// Normalize converts raw into a draft using source's strategy, falling
// back to the generic strategy for unregistered sources. The returned
// draft is validated and finished; errors wrapping ErrSkipItem mean
// "drop this item", anything else means the item is malformed.
func (r *Registry) Normalize(source task.Source, raw map[string]any, now time.Time) (task.Draft, error) {
	r.mu.RLock()
	fn, ok := r.strategies[source]
	template := r.urlTemplates[source]
	r.mu.RUnlock()
	if !ok {
		fn = normalizeGeneric
	}

	draft, err := fn(raw, now)
	if err != nil {
		return task.Draft{}, err
	}

	if draft.Status == "" {
		draft.Status = task.StatusOpen
	}
	draft.Priority = task.ClampPriority(draft.Priority)
	if draft.SourceURL == "" && template != "" {
		draft.SourceURL = expandURLTemplate(template, draft.SourceID)
	}
	if err := draft.Validate(); err != nil {
		return task.Draft{}, fmt.Errorf("%s record: %w", source, err)
	}
	return draft, nil
}

// expandURLTemplate substitutes the {id} placeholder, path-escaping
// the identifier.
func expandURLTemplate(template, sourceID string) string {
	return strings.ReplaceAll(template, "{id}", url.PathEscape(sourceID))
}
