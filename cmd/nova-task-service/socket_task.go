// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/attention"
	"github.com/Wardy-uk/NOVA-sub001/lib/codec"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
	"github.com/Wardy-uk/NOVA-sub001/lib/tasksearch"
	"github.com/Wardy-uk/NOVA-sub001/lib/taskstore"
)

// --- Request types ---

// taskListRequest is the request for the "task.list" action. Every
// field is an optional filter; absent fields are not applied.
type taskListRequest struct {
	Source         string `cbor:"source,omitempty"`
	Status         string `cbor:"status,omitempty"`
	Pinned         *bool  `cbor:"pinned,omitempty"`
	NeedsAttention *bool  `cbor:"needs_attention,omitempty"`

	// DueBefore is an RFC 3339 instant; tasks due strictly before it
	// match.
	DueBefore string `cbor:"due_before,omitempty"`

	Limit int `cbor:"limit,omitempty"`
}

// taskSearchRequest is the request for the "task.search" action.
type taskSearchRequest struct {
	Query string `cbor:"query"`
	Limit int    `cbor:"limit,omitempty"`
}

// taskGetRequest is the request for the "task.get" action.
type taskGetRequest struct {
	ID string `cbor:"id"`
}

// taskCreateRequest is the request for the "task.create" action.
// Title is required; priority defaults to the middle of the band.
type taskCreateRequest struct {
	Title       string `cbor:"title"`
	Description string `cbor:"description,omitempty"`
	Priority    *int   `cbor:"priority,omitempty"`

	// DueDate is an RFC 3339 instant.
	DueDate string `cbor:"due_date,omitempty"`
}

// taskSetStatusRequest is the request for the "task.set-status"
// action.
type taskSetStatusRequest struct {
	ID     string `cbor:"id"`
	Status string `cbor:"status"`
}

// taskPinRequest is the request for the "task.pin" action.
type taskPinRequest struct {
	ID     string `cbor:"id"`
	Pinned bool   `cbor:"pinned"`
}

// taskDeleteRequest is the request for the "task.delete" action.
type taskDeleteRequest struct {
	ID string `cbor:"id"`
}

// attentionEvaluateRequest is the request for the "attention.evaluate"
// action: a raw tracker record plus the priority it normalizes to,
// scored against the current clock. Exists so the SLA rules can be
// tried against a captured record without waiting for a sync cycle.
type attentionEvaluateRequest struct {
	Record   map[string]any `cbor:"record"`
	Priority int            `cbor:"priority,omitempty"`
}

// --- Response types ---
//
// Task rows cross the wire as lib/task.Task values. The codec encodes
// them by their json tags, so socket clients see the same field names
// snapshot files use.

// taskListResponse is the response for the "task.list" action.
type taskListResponse struct {
	Tasks []task.Task `cbor:"tasks"`
	Count int         `cbor:"count"`
}

// attentionEvaluateResponse mirrors the evaluation result with the
// same field names task.Attention serializes with.
type attentionEvaluateResponse struct {
	NeedsAttention     bool     `cbor:"needs_attention"`
	Reasons            []string `cbor:"reasons,omitempty"`
	UrgencyScore       int      `cbor:"urgency_score"`
	SlaRemainingMillis *int64   `cbor:"sla_remaining_millis,omitempty"`
}

// handleTaskList returns tasks matching the request filters, pinned
// first, then by urgency descending.
func (h *taskHub) handleTaskList(ctx context.Context, raw []byte) (any, error) {
	var request taskListRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}

	var filter taskstore.Filter
	if request.Source != "" {
		source, err := parseSource(request.Source)
		if err != nil {
			return nil, err
		}
		filter.Source = source
	}
	if request.Status != "" {
		status, err := parseStatus(request.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	filter.Pinned = request.Pinned
	filter.NeedsAttention = request.NeedsAttention
	if request.DueBefore != "" {
		dueBefore, err := time.Parse(time.RFC3339, request.DueBefore)
		if err != nil {
			return nil, fmt.Errorf("invalid due_before: %w", err)
		}
		filter.DueBefore = &dueBefore
	}
	filter.Limit = request.Limit

	tasks, err := h.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return taskListResponse{Tasks: tasks, Count: len(tasks)}, nil
}

// handleTaskSearch returns tasks ranked by relevance to a free-text
// query. Matching runs over title, source id, description, and source
// name; tasks with no matching token are left out entirely.
func (h *taskHub) handleTaskSearch(ctx context.Context, raw []byte) (any, error) {
	var request taskSearchRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Query == "" {
		return nil, fmt.Errorf("missing required field: query")
	}

	tasks, err := h.store.List(ctx, taskstore.Filter{})
	if err != nil {
		return nil, err
	}
	matches := tasksearch.Rank(tasks, request.Query, request.Limit)
	ranked := make([]task.Task, len(matches))
	for i, match := range matches {
		ranked[i] = match.Task
	}
	return taskListResponse{Tasks: ranked, Count: len(ranked)}, nil
}

// handleTaskGet returns one task by ID.
func (h *taskHub) handleTaskGet(ctx context.Context, raw []byte) (any, error) {
	var request taskGetRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ID == "" {
		return nil, fmt.Errorf("missing required field: id")
	}
	return h.store.Get(ctx, request.ID)
}

// handleTaskCreate inserts a task under the manual source and returns
// the stored row.
func (h *taskHub) handleTaskCreate(ctx context.Context, raw []byte) (any, error) {
	var request taskCreateRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}

	draft := taskstore.ManualDraft{
		Title:       request.Title,
		Description: request.Description,
		Priority:    task.DefaultPriority,
	}
	if request.Priority != nil {
		draft.Priority = *request.Priority
	}
	if request.DueDate != "" {
		dueDate, err := time.Parse(time.RFC3339, request.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date: %w", err)
		}
		draft.DueDate = &dueDate
	}

	created, err := h.store.CreateManual(ctx, draft)
	if err != nil {
		return nil, err
	}
	h.logger.Info("manual task created", "id", created.ID, "title", created.Title)
	return created, nil
}

// handleTaskSetStatus updates a task's lifecycle status and returns
// the updated row.
func (h *taskHub) handleTaskSetStatus(ctx context.Context, raw []byte) (any, error) {
	var request taskSetStatusRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ID == "" {
		return nil, fmt.Errorf("missing required field: id")
	}
	status, err := parseStatus(request.Status)
	if err != nil {
		return nil, err
	}

	if err := h.store.SetStatus(ctx, request.ID, status); err != nil {
		return nil, err
	}
	h.logger.Info("task status set", "id", request.ID, "status", string(status))
	return h.store.Get(ctx, request.ID)
}

// handleTaskPin toggles a task's pin flag and returns the updated row.
func (h *taskHub) handleTaskPin(ctx context.Context, raw []byte) (any, error) {
	var request taskPinRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ID == "" {
		return nil, fmt.Errorf("missing required field: id")
	}

	if err := h.store.SetPinned(ctx, request.ID, request.Pinned); err != nil {
		return nil, err
	}
	return h.store.Get(ctx, request.ID)
}

// handleTaskDelete removes a task by ID.
func (h *taskHub) handleTaskDelete(ctx context.Context, raw []byte) (any, error) {
	var request taskDeleteRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ID == "" {
		return nil, fmt.Errorf("missing required field: id")
	}

	if err := h.store.Delete(ctx, request.ID); err != nil {
		return nil, err
	}
	h.logger.Info("task deleted", "id", request.ID)
	return nil, nil
}

// handleAttentionEvaluate scores one raw record against the SLA,
// update-cadence, and due-date rules at the current instant.
func (h *taskHub) handleAttentionEvaluate(ctx context.Context, raw []byte) (any, error) {
	var request attentionEvaluateRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Record == nil {
		return nil, fmt.Errorf("missing required field: record")
	}

	result := attention.Evaluate(request.Record, h.clock.Now(), request.Priority)
	response := attentionEvaluateResponse{
		NeedsAttention: result.NeedsAttention,
		Reasons:        result.Reasons,
		UrgencyScore:   result.UrgencyScore,
	}
	if result.HasSla {
		remaining := result.SlaRemaining
		response.SlaRemainingMillis = &remaining
	}
	return response, nil
}
