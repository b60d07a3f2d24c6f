package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/postbridge/postbridge/internal/common"
	"github.com/postbridge/postbridge/internal/store"
)

// Repository persists accounts and their refresh sessions. Session methods
// take a Querier so rotation can run inside one transaction; account lookups
// always run on the pool.
type Repository struct {
	mgr *store.Manager
}

func NewRepository(mgr *store.Manager) *Repository {
	return &Repository{mgr: mgr}
}

// CreateAccount inserts acc. A username collision surfaces as
// common.ErrorAlreadyExists.
func (r *Repository) CreateAccount(ctx context.Context, acc *Account) error {
	_, err := store.Exec(ctx, r.mgr.DB(),
		`INSERT INTO accounts (id, username, password_hash, salt, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		acc.ID, acc.Username, acc.PasswordHash, acc.Salt, acc.CreatedAt)
	if err != nil {
		if store.ViolationOf(err) == store.ViolationUnique {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("accounts: create: %w", err)
	}
	return nil
}

// GetByUsername returns the account or common.ErrorNotFound.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.getAccount(ctx, `username = ?`, username)
}

// GetByID returns the account or common.ErrorNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*Account, error) {
	return r.getAccount(ctx, `id = ?`, id)
}

func (r *Repository) getAccount(ctx context.Context, where string, arg any) (*Account, error) {
	var acc *Account
	query := `SELECT id, username, password_hash, salt, created_at FROM accounts WHERE ` + where
	err := store.Query(ctx, r.mgr.DB(), query, func(rows *sql.Rows) error {
		acc = &Account{}
		return rows.Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &acc.Salt, &acc.CreatedAt)
	}, arg)
	if err != nil {
		return nil, fmt.Errorf("accounts: lookup: %w", err)
	}
	if acc == nil {
		return nil, common.ErrorNotFound
	}
	return acc, nil
}

// CreateSession stores a refresh session expiring validity from now.
func (r *Repository) CreateSession(ctx context.Context, q store.Querier, accountID, token string, validity time.Duration) error {
	_, err := store.Exec(ctx, q,
		`INSERT INTO sessions (token, account_id, expires_at) VALUES (?, ?, ?)`,
		token, accountID, time.Now().UTC().Add(validity))
	if err != nil {
		return fmt.Errorf("accounts: create session: %w", err)
	}
	return nil
}

// FindSession returns the session for token or common.ErrorNotFound.
func (r *Repository) FindSession(ctx context.Context, token string) (*Session, error) {
	var sess *Session
	err := store.Query(ctx, r.mgr.DB(),
		`SELECT token, account_id, expires_at FROM sessions WHERE token = ?`,
		func(rows *sql.Rows) error {
			sess = &Session{}
			return rows.Scan(&sess.Token, &sess.AccountID, &sess.ExpiresAt)
		}, token)
	if err != nil {
		return nil, fmt.Errorf("accounts: find session: %w", err)
	}
	if sess == nil {
		return nil, common.ErrorNotFound
	}
	return sess, nil
}

// DeleteSession revokes token. Deleting an absent token is not an error.
func (r *Repository) DeleteSession(ctx context.Context, q store.Querier, token string) error {
	if _, err := store.Exec(ctx, q, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("accounts: delete session: %w", err)
	}
	return nil
}
