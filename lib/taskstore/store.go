// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/Wardy-uk/NOVA-sub001/lib/clock"
	"github.com/Wardy-uk/NOVA-sub001/lib/codec"
	"github.com/Wardy-uk/NOVA-sub001/lib/sqlitepool"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// ErrNotFound is returned by lookups and single-row mutations when no
// task has the given ID.
var ErrNotFound = errors.New("task not found")

const schema = `
	CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		source          TEXT NOT NULL,
		source_id       TEXT NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		priority        INTEGER NOT NULL,
		due_date        INTEGER,
		source_url      TEXT NOT NULL DEFAULT '',
		is_pinned       INTEGER NOT NULL DEFAULT 0,
		needs_attention INTEGER NOT NULL DEFAULT 0,
		urgency_score   INTEGER NOT NULL DEFAULT 0,
		attention       BLOB,
		content_hash    BLOB NOT NULL,
		created_at      INTEGER NOT NULL,
		updated_at      INTEGER NOT NULL,
		UNIQUE (source, source_id)
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_source ON tasks(source);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_date) WHERE due_date IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_tasks_order ON tasks(is_pinned DESC, urgency_score DESC, updated_at DESC);
`

// Store is the SQLite-backed task collection. Safe for concurrent use;
// each method takes its own pooled connection.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Config holds the parameters for opening a task store.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist.
	Path string

	// PoolSize is the number of connections in the pool. Defaults to
	// 4 if zero or negative.
	PoolSize int

	// Clock provides timestamps for row creation and updates.
	// Required.
	Clock clock.Clock

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Open creates a task store backed by SQLite. The database file and
// schema are created if they do not exist.
func Open(cfg Config) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("taskstore: Clock is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("taskstore: %w", err)
	}

	return &Store{
		pool:   pool,
		clock:  cfg.Clock,
		logger: logger,
	}, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Get returns the task with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (task.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return task.Task{}, fmt.Errorf("taskstore: get: %w", err)
	}
	defer s.pool.Put(conn)

	var result task.Task
	found := false
	err = sqlitex.Execute(conn, selectColumns+" FROM tasks WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			scanned, scanErr := scanTask(stmt)
			if scanErr != nil {
				return scanErr
			}
			result = scanned
			found = true
			return nil
		},
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("taskstore: get %s: %w", id, err)
	}
	if !found {
		return task.Task{}, fmt.Errorf("taskstore: get %s: %w", id, ErrNotFound)
	}
	return result, nil
}

// Filter specifies the criteria for listing tasks. All fields are
// optional; zero-valued fields are not applied.
type Filter struct {
	Source         task.Source // Exact match on source.
	Status         task.Status // Exact match on status.
	Pinned         *bool       // Filter by pin flag.
	NeedsAttention *bool       // Filter by the attention flag.
	DueBefore      *time.Time  // Tasks with a due date strictly before this instant.
	Limit          int         // Maximum rows to return; 0 or negative means no limit.
}

// List returns tasks matching the filter, pinned tasks first, then by
// urgency score descending, then most recently updated.
func (s *Store) List(ctx context.Context, filter Filter) ([]task.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskstore: list: %w", err)
	}
	defer s.pool.Put(conn)

	var conditions []string
	var args []any

	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, string(filter.Source))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Pinned != nil {
		conditions = append(conditions, "is_pinned = ?")
		args = append(args, boolValue(*filter.Pinned))
	}
	if filter.NeedsAttention != nil {
		conditions = append(conditions, "needs_attention = ?")
		args = append(args, boolValue(*filter.NeedsAttention))
	}
	if filter.DueBefore != nil {
		conditions = append(conditions, "due_date IS NOT NULL AND due_date < ?")
		args = append(args, filter.DueBefore.UnixMilli())
	}

	query := selectColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY is_pinned DESC, urgency_score DESC, updated_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var results []task.Task
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			scanned, scanErr := scanTask(stmt)
			if scanErr != nil {
				return scanErr
			}
			results = append(results, scanned)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("taskstore: list: %w", err)
	}
	return results, nil
}

// SetStatus updates a task's status by direct user action. Returns
// ErrNotFound if no task has the given ID.
func (s *Store) SetStatus(ctx context.Context, id string, status task.Status) error {
	if !status.Valid() {
		return fmt.Errorf("taskstore: set status %s: invalid status %q", id, status)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("taskstore: set status: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{string(status), s.clock.Now().UnixMilli(), id},
	})
	if err != nil {
		return fmt.Errorf("taskstore: set status %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("taskstore: set status %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetPinned toggles a task's local focus flag. Returns ErrNotFound if
// no task has the given ID.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("taskstore: set pinned: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "UPDATE tasks SET is_pinned = ?, updated_at = ? WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{boolValue(pinned), s.clock.Now().UnixMilli(), id},
	})
	if err != nil {
		return fmt.Errorf("taskstore: set pinned %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("taskstore: set pinned %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a task by direct user action. Returns ErrNotFound if
// no task has the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("taskstore: delete: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM tasks WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("taskstore: delete %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("taskstore: delete %s: %w", id, ErrNotFound)
	}
	return nil
}

// ManualDraft holds the user-supplied fields for a manually created
// task. Title is required.
type ManualDraft struct {
	Title       string
	Description string
	Priority    int
	DueDate     *time.Time
}

// CreateManual inserts a user-created task under the manual source
// with a generated source ID, and returns the stored task.
func (s *Store) CreateManual(ctx context.Context, draft ManualDraft) (task.Task, error) {
	if draft.Title == "" {
		return task.Task{}, fmt.Errorf("taskstore: create manual: title is required")
	}

	now := s.clock.Now()
	created := task.Task{
		Source:      task.SourceManual,
		SourceID:    uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      task.StatusOpen,
		Priority:    task.ClampPriority(draft.Priority),
		DueDate:     draft.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created.ID = task.ID(created.Source, created.SourceID)

	hash, err := contentHash(created.Source, task.Draft{
		SourceID:    created.SourceID,
		Title:       created.Title,
		Description: created.Description,
		Status:      created.Status,
		Priority:    created.Priority,
		DueDate:     created.DueDate,
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("taskstore: create manual: %w", err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return task.Task{}, fmt.Errorf("taskstore: create manual: %w", err)
	}
	defer s.pool.Put(conn)

	var due any
	if created.DueDate != nil {
		due = created.DueDate.UnixMilli()
	}
	err = sqlitex.Execute(conn, `INSERT INTO tasks
		(id, source, source_id, title, description, status, priority,
		 due_date, source_url, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
		Args: []any{
			created.ID, string(created.Source), created.SourceID,
			created.Title, created.Description, string(created.Status),
			created.Priority, due, created.SourceURL, hash[:],
			now.UnixMilli(), now.UnixMilli(),
		},
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("taskstore: create manual: %w", err)
	}
	return created, nil
}

// DeleteStaleBySource removes all tasks for source whose ID is not in
// freshIDs, and returns the number removed. An empty freshIDs set
// removes every task for the source. Other sources are never touched.
func (s *Store) DeleteStaleBySource(ctx context.Context, source task.Source, freshIDs []string) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskstore: delete stale: %w", err)
	}
	defer s.pool.Put(conn)

	query := "DELETE FROM tasks WHERE source = ?"
	args := []any{string(source)}
	if len(freshIDs) > 0 {
		query += " AND id NOT IN (" + placeholders(len(freshIDs)) + ")"
		for _, id := range freshIDs {
			args = append(args, id)
		}
	}

	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args})
	if err != nil {
		return 0, fmt.Errorf("taskstore: delete stale %s: %w", source, err)
	}

	removed := conn.Changes()
	if removed > 0 {
		s.logger.Info("stale tasks removed",
			"source", string(source),
			"count", removed,
		)
	}
	return removed, nil
}

// DeleteAllBySource removes every task for source and returns the
// number removed.
func (s *Store) DeleteAllBySource(ctx context.Context, source task.Source) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskstore: delete all: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM tasks WHERE source = ?", &sqlitex.ExecOptions{
		Args: []any{string(source)},
	})
	if err != nil {
		return 0, fmt.Errorf("taskstore: delete all %s: %w", source, err)
	}
	return conn.Changes(), nil
}

// DeleteTransient removes tasks from per-session sources (calendar
// events, email) that must not persist across restarts. Returns the
// number removed.
func (s *Store) DeleteTransient(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskstore: delete transient: %w", err)
	}
	defer s.pool.Put(conn)

	var names []string
	var args []any
	for _, source := range task.Sources() {
		if source.Transient() {
			names = append(names, "?")
			args = append(args, string(source))
		}
	}

	query := "DELETE FROM tasks WHERE source IN (" + strings.Join(names, ", ") + ")"
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args})
	if err != nil {
		return 0, fmt.Errorf("taskstore: delete transient: %w", err)
	}

	removed := conn.Changes()
	if removed > 0 {
		s.logger.Info("transient tasks removed", "count", removed)
	}
	return removed, nil
}

// CountBySource returns the number of stored tasks per source.
func (s *Store) CountBySource(ctx context.Context) (map[task.Source]int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskstore: count: %w", err)
	}
	defer s.pool.Put(conn)

	counts := make(map[task.Source]int)
	err = sqlitex.Execute(conn, "SELECT source, COUNT(*) FROM tasks GROUP BY source", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			counts[task.Source(stmt.ColumnText(0))] = stmt.ColumnInt(1)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("taskstore: count: %w", err)
	}
	return counts, nil
}

// Restore inserts complete task rows, replacing any existing rows with
// the same ID. Timestamps, pin flags, and statuses are preserved as
// given. Used by snapshot import.
func (s *Store) Restore(ctx context.Context, tasks []task.Task) (count int, err error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskstore: restore: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("taskstore: restore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	for i := range tasks {
		restored := &tasks[i]
		if validateErr := restored.Validate(); validateErr != nil {
			err = fmt.Errorf("taskstore: restore %s: %w", restored.ID, validateErr)
			return count, err
		}

		hash, hashErr := contentHash(restored.Source, task.Draft{
			SourceID:    restored.SourceID,
			Title:       restored.Title,
			Description: restored.Description,
			Status:      restored.Status,
			Priority:    restored.Priority,
			DueDate:     restored.DueDate,
			SourceURL:   restored.SourceURL,
		})
		if hashErr != nil {
			err = fmt.Errorf("taskstore: restore %s: %w", restored.ID, hashErr)
			return count, err
		}

		var attentionBlob any
		needsAttention := 0
		urgency := 0
		if restored.Attention != nil {
			encoded, encodeErr := codec.Marshal(restored.Attention)
			if encodeErr != nil {
				err = fmt.Errorf("taskstore: restore %s: encode attention: %w", restored.ID, encodeErr)
				return count, err
			}
			attentionBlob = encoded
			needsAttention = boolValue(restored.Attention.NeedsAttention)
			urgency = restored.Attention.UrgencyScore
		}

		var due any
		if restored.DueDate != nil {
			due = restored.DueDate.UnixMilli()
		}

		err = sqlitex.Execute(conn, `INSERT OR REPLACE INTO tasks
			(id, source, source_id, title, description, status, priority,
			 due_date, source_url, is_pinned, needs_attention,
			 urgency_score, attention, content_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{
				restored.ID, string(restored.Source), restored.SourceID,
				restored.Title, restored.Description, string(restored.Status),
				restored.Priority, due, restored.SourceURL,
				boolValue(restored.Pinned), needsAttention, urgency,
				attentionBlob, hash[:],
				restored.CreatedAt.UnixMilli(), restored.UpdatedAt.UnixMilli(),
			},
		})
		if err != nil {
			err = fmt.Errorf("taskstore: restore %s: %w", restored.ID, err)
			return count, err
		}
		count++
	}
	return count, nil
}

const selectColumns = `SELECT id, source, source_id, title, description,
	status, priority, due_date, source_url, is_pinned, needs_attention,
	urgency_score, attention, created_at, updated_at`

// scanTask reads one task row.
func scanTask(stmt *sqlite.Stmt) (task.Task, error) {
	// Columns: id(0), source(1), source_id(2), title(3),
	// description(4), status(5), priority(6), due_date(7),
	// source_url(8), is_pinned(9), needs_attention(10),
	// urgency_score(11), attention(12), created_at(13), updated_at(14)
	scanned := task.Task{
		ID:          stmt.ColumnText(0),
		Source:      task.Source(stmt.ColumnText(1)),
		SourceID:    stmt.ColumnText(2),
		Title:       stmt.ColumnText(3),
		Description: stmt.ColumnText(4),
		Status:      task.Status(stmt.ColumnText(5)),
		Priority:    stmt.ColumnInt(6),
		SourceURL:   stmt.ColumnText(8),
		Pinned:      stmt.ColumnInt(9) != 0,
		CreatedAt:   time.UnixMilli(stmt.ColumnInt64(13)),
		UpdatedAt:   time.UnixMilli(stmt.ColumnInt64(14)),
	}

	if !stmt.ColumnIsNull(7) {
		due := time.UnixMilli(stmt.ColumnInt64(7))
		scanned.DueDate = &due
	}

	if !stmt.ColumnIsNull(12) {
		blob := make([]byte, stmt.ColumnLen(12))
		stmt.ColumnBytes(12, blob)
		var info task.Attention
		if err := codec.Unmarshal(blob, &info); err != nil {
			return task.Task{}, fmt.Errorf("decode attention for %s: %w", scanned.ID, err)
		}
		scanned.Attention = &info
	}

	return scanned, nil
}

// placeholders returns "?, ?, ..., ?" with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func boolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
