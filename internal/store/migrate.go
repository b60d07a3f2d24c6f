package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/postbridge/postbridge/internal/logging"
)

// Migration is one forward-only schema or data change. There is no version
// counter: Applied must detect a prior application by introspecting live
// schema or data state (table present, column present and non-nullable, rows
// seeded). Apply only runs when Applied reported false.
type Migration struct {
	Name    string
	Applied func(ctx context.Context, q Querier) (bool, error)
	Apply   func(ctx context.Context, q Querier) error
}

// Migrator applies an ordered migration list inside a single transaction at
// process start. A failure anywhere rolls back the whole batch, including
// migrations that ran earlier in the same pass; callers must treat that as
// fatal and not serve traffic over a partially migrated schema.
type Migrator struct {
	mgr  *Manager
	log  logging.Logger
	list []Migration
}

func NewMigrator(mgr *Manager, log logging.Logger, list []Migration) *Migrator {
	return &Migrator{mgr: mgr, log: log.With("module", "migrator"), list: list}
}

// Run executes the list strictly in order. A later migration's Applied check
// may assume every earlier migration succeeded: an earlier failure aborts
// the transaction before later entries are reached.
func (m *Migrator) Run(ctx context.Context) error {
	return m.mgr.WithTx(ctx, func(ctx context.Context, tx Querier) error {
		for _, mig := range m.list {
			applied, err := mig.Applied(ctx, tx)
			if err != nil {
				return fmt.Errorf("store: migration %q: applied check: %w", mig.Name, err)
			}
			if applied {
				m.log.Debug(ctx, "migration already applied", "migration", mig.Name)
				continue
			}
			if err := mig.Apply(ctx, tx); err != nil {
				return fmt.Errorf("store: migration %q: %w", mig.Name, err)
			}
			m.log.Info(ctx, "migration applied", "migration", mig.Name)
		}
		return nil
	})
}

// tableExists reports whether a table of the given name exists.
func tableExists(ctx context.Context, q Querier, name string) (bool, error) {
	var n int
	err := Query(ctx, q,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		func(rows *sql.Rows) error { return rows.Scan(&n) },
		name)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// tableColumn reports whether table has the named column and, if so, whether
// it carries a NOT NULL constraint. PRAGMA statements do not accept bind
// parameters; table names here are compile-time constants.
func tableColumn(ctx context.Context, q Querier, table, column string) (exists, notNull bool, err error) {
	err = Query(ctx, q, fmt.Sprintf("PRAGMA table_info(%s)", table),
		func(rows *sql.Rows) error {
			var (
				cid  int
				name string
				typ  string
				nn   int
				dflt sql.NullString
				pk   int
			)
			if err := rows.Scan(&cid, &name, &typ, &nn, &dflt, &pk); err != nil {
				return err
			}
			if name == column {
				exists = true
				notNull = nn != 0
			}
			return nil
		})
	return exists, notNull, err
}

// hasRows reports whether table contains at least one row.
func hasRows(ctx context.Context, q Querier, table string) (bool, error) {
	var n int
	err := Query(ctx, q, fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s)", table),
		func(rows *sql.Rows) error { return rows.Scan(&n) })
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
