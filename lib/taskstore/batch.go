// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/Wardy-uk/NOVA-sub001/lib/codec"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// Counts reports the outcome of a batch flush.
type Counts struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// Total returns the number of drafts the flush processed.
func (c Counts) Total() int {
	return c.Inserted + c.Updated + c.Unchanged
}

// Batch accumulates normalized drafts for one source and flushes them
// in a single IMMEDIATE transaction. Not safe for concurrent use.
type Batch struct {
	store  *Store
	source task.Source
	drafts []task.Draft
}

// NewBatch returns an empty batch for source.
func (s *Store) NewBatch(source task.Source) *Batch {
	return &Batch{store: s, source: source}
}

// Add queues a draft for the next Flush.
func (b *Batch) Add(draft task.Draft) {
	b.drafts = append(b.drafts, draft)
}

// Len returns the number of queued drafts.
func (b *Batch) Len() int {
	return len(b.drafts)
}

// IDs returns the task IDs the queued drafts map to, in queue order.
// This is the fresh-ID set for a stale-deletion pass.
func (b *Batch) IDs() []string {
	ids := make([]string, len(b.drafts))
	for i := range b.drafts {
		ids[i] = task.ID(b.source, b.drafts[i].SourceID)
	}
	return ids
}

// Flush upserts all queued drafts in one transaction and empties the
// batch. A failed flush rolls back entirely; the batch keeps its
// drafts so the caller can retry.
func (b *Batch) Flush(ctx context.Context) (counts Counts, err error) {
	if len(b.drafts) == 0 {
		return Counts{}, nil
	}

	conn, err := b.store.pool.Take(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("taskstore: flush: %w", err)
	}
	defer b.store.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return Counts{}, fmt.Errorf("taskstore: flush: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	now := b.store.clock.Now().UnixMilli()
	for i := range b.drafts {
		outcome, upsertErr := b.store.upsertOne(conn, b.source, &b.drafts[i], now)
		if upsertErr != nil {
			err = upsertErr
			return counts, err
		}
		switch outcome {
		case outcomeInserted:
			counts.Inserted++
		case outcomeUpdated:
			counts.Updated++
		case outcomeUnchanged:
			counts.Unchanged++
		}
	}

	b.drafts = b.drafts[:0]
	return counts, nil
}

// UpsertFromSource inserts or updates a single draft for source. The
// created return reports whether a new row was inserted. Batch is
// preferred for whole-sync writes.
func (s *Store) UpsertFromSource(ctx context.Context, source task.Source, draft task.Draft) (created bool, err error) {
	batch := s.NewBatch(source)
	batch.Add(draft)
	counts, err := batch.Flush(ctx)
	if err != nil {
		return false, err
	}
	return counts.Inserted > 0, nil
}

type upsertOutcome int

const (
	outcomeInserted upsertOutcome = iota
	outcomeUpdated
	outcomeUnchanged
)

// upsertOne writes a single draft inside the caller's transaction.
//
// The row is untouched when the content hash matches (attention
// metadata excepted: it derives from the evaluation instant and is
// refreshed in place without advancing updated_at). When content did
// change, a locally-set status on the stored row wins over the
// source's open/in_progress transition.
func (s *Store) upsertOne(conn *sqlite.Conn, source task.Source, draft *task.Draft, nowMillis int64) (upsertOutcome, error) {
	if err := draft.Validate(); err != nil {
		return 0, fmt.Errorf("taskstore: upsert: %w", err)
	}

	id := task.ID(source, draft.SourceID)
	hash, err := contentHash(source, *draft)
	if err != nil {
		return 0, fmt.Errorf("taskstore: upsert %s: %w", id, err)
	}

	var attentionBlob []byte
	needsAttention := 0
	urgency := 0
	if draft.Attention != nil {
		attentionBlob, err = codec.Marshal(draft.Attention)
		if err != nil {
			return 0, fmt.Errorf("taskstore: upsert %s: encode attention: %w", id, err)
		}
		needsAttention = boolValue(draft.Attention.NeedsAttention)
		urgency = draft.Attention.UrgencyScore
	}

	var storedHash []byte
	var storedAttention []byte
	var storedStatus task.Status
	found := false
	err = sqlitex.Execute(conn, "SELECT content_hash, attention, status FROM tasks WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			storedHash = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, storedHash)
			if !stmt.ColumnIsNull(1) {
				storedAttention = make([]byte, stmt.ColumnLen(1))
				stmt.ColumnBytes(1, storedAttention)
			}
			storedStatus = task.Status(stmt.ColumnText(2))
			found = true
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("taskstore: upsert %s: %w", id, err)
	}

	var due any
	if draft.DueDate != nil {
		due = draft.DueDate.UnixMilli()
	}
	var attention any
	if attentionBlob != nil {
		attention = attentionBlob
	}

	if !found {
		err = sqlitex.Execute(conn, `INSERT INTO tasks
			(id, source, source_id, title, description, status, priority,
			 due_date, source_url, needs_attention, urgency_score,
			 attention, content_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{
				id, string(source), draft.SourceID, draft.Title,
				draft.Description, string(draft.Status), draft.Priority,
				due, draft.SourceURL, needsAttention, urgency,
				attention, hash[:], nowMillis, nowMillis,
			},
		})
		if err != nil {
			return 0, fmt.Errorf("taskstore: insert %s: %w", id, err)
		}
		return outcomeInserted, nil
	}

	if bytes.Equal(storedHash, hash[:]) {
		if bytes.Equal(storedAttention, attentionBlob) {
			return outcomeUnchanged, nil
		}
		err = sqlitex.Execute(conn, `UPDATE tasks
			SET needs_attention = ?, urgency_score = ?, attention = ?
			WHERE id = ?`, &sqlitex.ExecOptions{
			Args: []any{needsAttention, urgency, attention, id},
		})
		if err != nil {
			return 0, fmt.Errorf("taskstore: refresh attention %s: %w", id, err)
		}
		return outcomeUnchanged, nil
	}

	status := draft.Status
	if storedStatus.LocallySet() && !status.LocallySet() {
		status = storedStatus
	}

	err = sqlitex.Execute(conn, `UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?,
		    due_date = ?, source_url = ?, needs_attention = ?,
		    urgency_score = ?, attention = ?, content_hash = ?,
		    updated_at = ?
		WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{
			draft.Title, draft.Description, string(status),
			draft.Priority, due, draft.SourceURL, needsAttention,
			urgency, attention, hash[:], nowMillis, id,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("taskstore: update %s: %w", id, err)
	}
	return outcomeUpdated, nil
}

// hashContent is the canonical serialization the content hash covers:
// exactly the source-reported fields, never local or derived state.
type hashContent struct {
	Source      string
	SourceID    string
	Title       string
	Description string
	Status      string
	Priority    int
	DueUnixMs   *int64
	SourceURL   string
}

// contentHash returns the BLAKE3 hash of a draft's source-reported
// content. Deterministic CBOR keeps the encoding stable across runs.
func contentHash(source task.Source, draft task.Draft) ([32]byte, error) {
	record := hashContent{
		Source:      string(source),
		SourceID:    draft.SourceID,
		Title:       draft.Title,
		Description: draft.Description,
		Status:      string(draft.Status),
		Priority:    draft.Priority,
		SourceURL:   draft.SourceURL,
	}
	if draft.DueDate != nil {
		millis := draft.DueDate.UnixMilli()
		record.DueUnixMs = &millis
	}

	encoded, err := codec.Marshal(record)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode content hash: %w", err)
	}
	return blake3.Sum256(encoded), nil
}
