// Package store implements the document store and its supporting machinery:
// a Manager that owns the SQLite connection pool and provides scoped
// transactions with cancellation-aware statement execution, a forward-only
// migration engine, and the tenant-scoped, tag-indexed DocumentStore.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/postbridge/postbridge/internal/filex"
)

// Querier is the subset of database/sql used by repositories and migrations.
// Both *sql.DB and *sql.Tx satisfy this interface.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// defaultPoolSize keeps the pool small: the backing engine is a single-writer
// embedded database, so extra connections only add lock contention.
const defaultPoolSize = 4

// Manager owns the database handle and hands out scoped transactions.
type Manager struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// configures the bounded connection pool. poolSize <= 0 selects the default.
//
// WAL mode keeps readers from blocking the writer, foreign_keys enforces the
// document/tag relation, and busy_timeout makes concurrent writers queue
// briefly instead of failing immediately.
func Open(path string, poolSize int) (*Manager, error) {
	if path != ":memory:" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	return &Manager{db: db}, nil
}

// NewManager wraps an existing handle. Most callers use Open; NewManager
// exists for callers that configure the pool themselves.
func NewManager(db *sql.DB) *Manager { return &Manager{db: db} }

// DSN builds the modernc.org/sqlite connection string for path, attaching
// the pragmas every connection in the pool must carry. ":memory:" maps to a
// shared-cache in-memory database so all pooled connections see one schema.
func DSN(path string) string {
	params := []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(ON)",
		"_pragma=busy_timeout(5000)",
	}
	if path == ":memory:" {
		params = append([]string{"cache=shared"}, params...)
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

// DB exposes the underlying handle for callers that manage their own scope,
// such as single-statement repositories.
func (m *Manager) DB() *sql.DB { return m.db }

// Close releases the pool.
func (m *Manager) Close() error { return m.db.Close() }

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error, cancellation, or panic. Panics
// are rethrown. The connection is always returned to the pool with
// auto-commit restored, whichever exit path is taken.
func (m *Manager) WithTx(ctx context.Context, fn func(ctx context.Context, tx Querier) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// Exec runs a single statement on its own worker goroutine. If ctx is
// cancelled while the statement is in flight, the driver interrupts it, the
// worker is awaited until it has finished responding to the interrupt, and
// the cancellation is re-raised. Neither a live statement nor the worker
// ever outlives the call. Constraint violations are classified via
// Violation; see ViolationOf.
func Exec(ctx context.Context, q Querier, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := await(ctx, func() error {
		var err error
		res, err = q.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, classifyViolation(err)
	}
	return res, nil
}

// Query runs a query on its own worker goroutine and streams the result set
// through scan. Rows are opened, iterated, and closed entirely on the worker
// so that a cancelled caller never leaks a cursor. scan is invoked once per
// row.
func Query(ctx context.Context, q Querier, query string, scan func(rows *sql.Rows) error, args ...any) error {
	err := await(ctx, func() error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			if err := scan(rows); err != nil {
				return err
			}
		}
		return rows.Err()
	})
	if err != nil {
		return classifyViolation(err)
	}
	return nil
}

// await runs fn on a dedicated goroutine and waits for it to finish even
// when ctx is cancelled first: the in-flight statement sees the cancellation
// through its own ctx, and we must not return (releasing the enclosing
// scope) until the worker has wound down.
func await(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		err := <-done
		if err != nil && !errors.Is(err, ctx.Err()) {
			return fmt.Errorf("store: statement aborted: %v: %w", err, ctx.Err())
		}
		return fmt.Errorf("store: statement aborted: %w", ctx.Err())
	}
}
