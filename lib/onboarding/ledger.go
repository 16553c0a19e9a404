// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package onboarding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/Wardy-uk/NOVA-sub001/lib/clock"
	"github.com/Wardy-uk/NOVA-sub001/lib/sqlitepool"
)

// ErrNoRun is returned by GetByRef when no run is recorded for a
// reference.
var ErrNoRun = errors.New("onboarding run not found")

// RunStatus is the terminal (or in-flight) state of a recorded run.
type RunStatus string

const (
	// RunPending is the state a run record is created in, before any
	// tracker work has completed.
	RunPending RunStatus = "pending"

	// RunSuccess means every resolved ticket group got a child ticket.
	RunSuccess RunStatus = "success"

	// RunPartial means the run finished but some resolved groups have
	// no child ticket, either because creation failed or because a
	// group filter excluded them.
	RunPartial RunStatus = "partial"

	// RunError means the run aborted on an unexpected failure.
	RunError RunStatus = "error"
)

// Valid reports whether s is a known run status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunPending, RunSuccess, RunPartial, RunError:
		return true
	}
	return false
}

// ChildTicket pairs a resolved ticket group with the tracker issue that
// covers it.
type ChildTicket struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	IssueKey  string `json:"issue_key"`
}

// Run is one onboarding execution recorded in the ledger.
type Run struct {
	ID           int64         `json:"id"`
	Ref          string        `json:"ref"`
	Status       RunStatus     `json:"status"`
	ParentKey    string        `json:"parent_key,omitempty"`
	Children     []ChildTicket `json:"children,omitempty"`
	CreatedCount int           `json:"created_count"`
	LinkedCount  int           `json:"linked_count"`
	DryRun       bool          `json:"dry_run,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// RunPatch updates fields on an existing run. Nil fields are left
// unchanged; a non-nil Children replaces the child list wholesale.
type RunPatch struct {
	Status       *RunStatus
	ParentKey    *string
	Children     []ChildTicket
	CreatedCount *int
	LinkedCount  *int
	ErrorMessage *string
}

// ledgerSchema holds run rows and their child-ticket rows. The child
// table references its run with ON DELETE CASCADE; the pool opens
// connections with foreign keys enforced. The partial unique index is
// the "at most one successful run per reference" invariant, enforced
// where it cannot be raced past.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS onboarding_runs (
    id             INTEGER PRIMARY KEY,
    onboarding_ref TEXT    NOT NULL,
    status         TEXT    NOT NULL,
    parent_key     TEXT    NOT NULL DEFAULT '',
    created_count  INTEGER NOT NULL DEFAULT 0,
    linked_count   INTEGER NOT NULL DEFAULT 0,
    dry_run        INTEGER NOT NULL DEFAULT 0,
    error_message  TEXT    NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_onboarding_runs_ref
    ON onboarding_runs (onboarding_ref, id);

CREATE UNIQUE INDEX IF NOT EXISTS idx_onboarding_runs_one_success
    ON onboarding_runs (onboarding_ref) WHERE status = 'success';

CREATE TABLE IF NOT EXISTS onboarding_run_children (
    run_id     INTEGER NOT NULL REFERENCES onboarding_runs (id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    group_id   TEXT    NOT NULL,
    group_name TEXT    NOT NULL,
    issue_key  TEXT    NOT NULL,
    PRIMARY KEY (run_id, position)
);
`

// LedgerConfig holds configuration for opening a run ledger.
type LedgerConfig struct {
	// Path is the SQLite database file. Required.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Clock provides timestamps. Required.
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// Ledger is the SQLite-backed record of onboarding runs.
type Ledger struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// OpenLedger opens (creating if needed) the run ledger database.
func OpenLedger(config LedgerConfig) (*Ledger, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("onboarding: ledger Path is required")
	}
	if config.Clock == nil {
		return nil, fmt.Errorf("onboarding: ledger Clock is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     config.Path,
		PoolSize: config.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, ledgerSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("onboarding: opening ledger: %w", err)
	}

	return &Ledger{pool: pool, clock: config.Clock, logger: logger}, nil
}

// Close releases the ledger's database connections.
func (ledger *Ledger) Close() error {
	return ledger.pool.Close()
}

// GetByRef returns the most recent run recorded for a reference, or
// ErrNoRun. A successful run is always the most recent one for its
// reference: Execute short-circuits on a recorded success, so nothing
// is written after it.
func (ledger *Ledger) GetByRef(ctx context.Context, ref string) (*Run, error) {
	conn, err := ledger.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer ledger.pool.Put(conn)

	var run *Run
	err = sqlitex.Execute(conn, `
		SELECT id, onboarding_ref, status, parent_key, created_count,
		       linked_count, dry_run, error_message, created_at, updated_at
		FROM onboarding_runs WHERE onboarding_ref = ?
		ORDER BY id DESC LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{ref},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				run = scanRun(stmt)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("onboarding: loading run for %q: %w", ref, err)
	}
	if run == nil {
		return nil, fmt.Errorf("onboarding: ref %q: %w", ref, ErrNoRun)
	}

	if err := ledger.loadChildren(conn, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (ledger *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	conn, err := ledger.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer ledger.pool.Put(conn)

	var runs []*Run
	err = sqlitex.Execute(conn, `
		SELECT id, onboarding_ref, status, parent_key, created_count,
		       linked_count, dry_run, error_message, created_at, updated_at
		FROM onboarding_runs ORDER BY id DESC LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				runs = append(runs, scanRun(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("onboarding: listing runs: %w", err)
	}

	result := make([]Run, 0, len(runs))
	for _, run := range runs {
		if err := ledger.loadChildren(conn, run); err != nil {
			return nil, err
		}
		result = append(result, *run)
	}
	return result, nil
}

// Create records a new run and returns its id. The run's timestamps
// are assigned here.
func (ledger *Ledger) Create(ctx context.Context, run *Run) (runID int64, err error) {
	if run.Ref == "" {
		return 0, fmt.Errorf("onboarding: run ref is required")
	}
	if !run.Status.Valid() {
		return 0, fmt.Errorf("onboarding: invalid run status %q", run.Status)
	}

	conn, err := ledger.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer ledger.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("onboarding: beginning transaction: %w", err)
	}
	defer endTransaction(&err)

	now := ledger.clock.Now().UnixMilli()
	err = sqlitex.Execute(conn, `
		INSERT INTO onboarding_runs
			(onboarding_ref, status, parent_key, created_count,
			 linked_count, dry_run, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				run.Ref, string(run.Status), run.ParentKey, run.CreatedCount,
				run.LinkedCount, boolValue(run.DryRun), run.ErrorMessage, now, now,
			},
		})
	if err != nil {
		return 0, fmt.Errorf("onboarding: recording run for %q: %w", run.Ref, err)
	}
	runID = conn.LastInsertRowID()

	if err = ledger.replaceChildren(conn, runID, run.Children); err != nil {
		return 0, err
	}

	ledger.logger.Debug("onboarding run recorded", "ref", run.Ref, "run_id", runID, "status", run.Status)
	return runID, nil
}

// Update applies a patch to an existing run and bumps its updated_at.
func (ledger *Ledger) Update(ctx context.Context, runID int64, patch RunPatch) (err error) {
	assignments := []string{"updated_at = ?"}
	args := []any{ledger.clock.Now().UnixMilli()}

	if patch.Status != nil {
		if !patch.Status.Valid() {
			return fmt.Errorf("onboarding: invalid run status %q", *patch.Status)
		}
		assignments = append(assignments, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.ParentKey != nil {
		assignments = append(assignments, "parent_key = ?")
		args = append(args, *patch.ParentKey)
	}
	if patch.CreatedCount != nil {
		assignments = append(assignments, "created_count = ?")
		args = append(args, *patch.CreatedCount)
	}
	if patch.LinkedCount != nil {
		assignments = append(assignments, "linked_count = ?")
		args = append(args, *patch.LinkedCount)
	}
	if patch.ErrorMessage != nil {
		assignments = append(assignments, "error_message = ?")
		args = append(args, *patch.ErrorMessage)
	}
	args = append(args, runID)

	conn, err := ledger.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer ledger.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("onboarding: beginning transaction: %w", err)
	}
	defer endTransaction(&err)

	query := "UPDATE onboarding_runs SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	if err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		return fmt.Errorf("onboarding: updating run %d: %w", runID, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("onboarding: run %d: %w", runID, ErrNoRun)
	}

	if patch.Children != nil {
		if err = sqlitex.Execute(conn, "DELETE FROM onboarding_run_children WHERE run_id = ?",
			&sqlitex.ExecOptions{Args: []any{runID}}); err != nil {
			return fmt.Errorf("onboarding: clearing children of run %d: %w", runID, err)
		}
		if err = ledger.replaceChildren(conn, runID, patch.Children); err != nil {
			return err
		}
	}
	return nil
}

// replaceChildren inserts the child rows for a run. Caller holds a
// transaction.
func (ledger *Ledger) replaceChildren(conn *sqlite.Conn, runID int64, children []ChildTicket) error {
	for position, child := range children {
		err := sqlitex.Execute(conn, `
			INSERT INTO onboarding_run_children
				(run_id, position, group_id, group_name, issue_key)
			VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{runID, position, child.GroupID, child.GroupName, child.IssueKey},
			})
		if err != nil {
			return fmt.Errorf("onboarding: recording child %q of run %d: %w", child.GroupID, runID, err)
		}
	}
	return nil
}

// loadChildren populates run.Children in position order.
func (ledger *Ledger) loadChildren(conn *sqlite.Conn, run *Run) error {
	err := sqlitex.Execute(conn, `
		SELECT group_id, group_name, issue_key FROM onboarding_run_children
		WHERE run_id = ? ORDER BY position`,
		&sqlitex.ExecOptions{
			Args: []any{run.ID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				run.Children = append(run.Children, ChildTicket{
					GroupID:   stmt.ColumnText(0),
					GroupName: stmt.ColumnText(1),
					IssueKey:  stmt.ColumnText(2),
				})
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("onboarding: loading children of run %d: %w", run.ID, err)
	}
	return nil
}

// scanRun builds a Run from a full row. Column order matches the
// SELECT lists above.
func scanRun(stmt *sqlite.Stmt) *Run {
	return &Run{
		ID:           stmt.ColumnInt64(0),
		Ref:          stmt.ColumnText(1),
		Status:       RunStatus(stmt.ColumnText(2)),
		ParentKey:    stmt.ColumnText(3),
		CreatedCount: stmt.ColumnInt(4),
		LinkedCount:  stmt.ColumnInt(5),
		DryRun:       stmt.ColumnInt(6) != 0,
		ErrorMessage: stmt.ColumnText(7),
		CreatedAt:    time.UnixMilli(stmt.ColumnInt64(8)),
		UpdatedAt:    time.UnixMilli(stmt.ColumnInt64(9)),
	}
}

// boolValue converts a bool to its SQLite integer form.
func boolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
