package store

import (
	"context"
	"time"
)

// SeedAccount carries the bootstrap account written by the seed migration.
// The hash and salt are produced by the accounts package; the store only
// persists them.
type SeedAccount struct {
	ID           string
	Username     string
	PasswordHash []byte
	Salt         []byte
}

// Migrations returns the full ordered migration list. The list is
// append-only: entries are never edited, reordered, or removed once shipped.
// New schema changes go at the end with their own introspection check.
func Migrations(seed SeedAccount) []Migration {
	return []Migration{
		{
			Name: "create documents table",
			Applied: func(ctx context.Context, q Querier) (bool, error) {
				return tableExists(ctx, q, "documents")
			},
			Apply: func(ctx context.Context, q Querier) error {
				_, err := Exec(ctx, q, `
					CREATE TABLE documents (
						uuid       TEXT PRIMARY KEY,
						search_key TEXT NOT NULL UNIQUE,
						kind       TEXT NOT NULL,
						payload    TEXT NOT NULL,
						created_at TIMESTAMP NOT NULL
					)`)
				return err
			},
		},
		{
			Name: "create document tags table",
			Applied: func(ctx context.Context, q Querier) (bool, error) {
				return tableExists(ctx, q, "document_tags")
			},
			Apply: func(ctx context.Context, q Querier) error {
				_, err := Exec(ctx, q, `
					CREATE TABLE document_tags (
						document_uuid TEXT NOT NULL REFERENCES documents(uuid),
						name          TEXT NOT NULL,
						kind          TEXT NOT NULL,
						PRIMARY KEY (document_uuid, name, kind)
					)`)
				return err
			},
		},
		{
			Name: "create accounts table",
			Applied: func(ctx context.Context, q Querier) (bool, error) {
				return tableExists(ctx, q, "accounts")
			},
			Apply: func(ctx context.Context, q Querier) error {
				_, err := Exec(ctx, q, `
					CREATE TABLE accounts (
						id            TEXT PRIMARY KEY,
						username      TEXT NOT NULL UNIQUE,
						password_hash BLOB NOT NULL,
						salt          BLOB NOT NULL,
						created_at    TIMESTAMP NOT NULL
					)`)
				return err
			},
		},
		{
			// Zero-DDL data migration: applied when any account exists.
			Name: "seed default account",
			Applied: func(ctx context.Context, q Querier) (bool, error) {
				return hasRows(ctx, q, "accounts")
			},
			Apply: func(ctx context.Context, q Querier) error {
				_, err := Exec(ctx, q,
					`INSERT INTO accounts (id, username, password_hash, salt, created_at)
					 VALUES (?, ?, ?, ?, ?)`,
					seed.ID, seed.Username, seed.PasswordHash, seed.Salt, time.Now().UTC())
				return err
			},
		},
		{
			// Documents predate multi-tenancy; existing rows are assigned to
			// the seeded account.
			Name: "add document owner column",
			Applied: func(ctx context.Context, q Querier) (bool, error) {
				exists, notNull, err := tableColumn(ctx, q, "documents", "owner_id")
				return exists && notNull, err
			},
			Apply: func(ctx context.Context, q Querier) error {
				if _, err := Exec(ctx, q,
					`ALTER TABLE documents ADD COLUMN owner_id TEXT NOT NULL DEFAULT ''`); err != nil {
					return err
				}
				if _, err := Exec(ctx, q,
					`UPDATE documents SET owner_id = ? WHERE owner_id = ''`, seed.ID); err != nil {
					return err
				}
				_, err := Exec(ctx, q,
					`CREATE INDEX idx_documents_kind_owner ON documents(kind, owner_id)`)
				return err
			},
		},
		{
			Name: "create sessions table",
			Applied: func(ctx context.Context, q Querier) (bool, error) {
				return tableExists(ctx, q, "sessions")
			},
			Apply: func(ctx context.Context, q Querier) error {
				_, err := Exec(ctx, q, `
					CREATE TABLE sessions (
						token      TEXT PRIMARY KEY,
						account_id TEXT NOT NULL REFERENCES accounts(id),
						expires_at TIMESTAMP NOT NULL
					)`)
				return err
			},
		},
	}
}
