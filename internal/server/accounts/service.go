package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/postbridge/postbridge/internal/common"
	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/server/auth"
	"github.com/postbridge/postbridge/internal/store"
)

// ErrEmptyCredentials rejects registrations with a blank username or password.
var ErrEmptyCredentials = errors.New("accounts: username and password are required")

// Service provides authentication operations:
//   - Register: create accounts
//   - Login: verify credentials and mint tokens
//   - Refresh: rotate refresh tokens and mint new access tokens
type Service struct {
	mgr             *store.Manager
	repo            *Repository
	jwtSecret       []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
	log             logging.Logger
}

func NewService(mgr *store.Manager, jwtSecret []byte, accessValidity, refreshValidity time.Duration, log logging.Logger) *Service {
	return &Service{
		mgr:             mgr,
		repo:            NewRepository(mgr),
		jwtSecret:       jwtSecret,
		accessValidity:  accessValidity,
		refreshValidity: refreshValidity,
		log:             log.With("module", "accounts"),
	}
}

// DefaultAdmin builds the bootstrap account the migration engine seeds into
// a fresh database.
func DefaultAdmin(username, password string) store.SeedAccount {
	salt := NewSalt()
	return store.SeedAccount{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: HashPassword(password, salt),
		Salt:         salt,
	}
}

// Register creates an account for the given credentials. A taken username
// surfaces as common.ErrorAlreadyExists.
func (s *Service) Register(ctx context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	salt := NewSalt()
	acc := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: HashPassword(password, salt),
		Salt:         salt,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account registered", "username", username)
	return acc, nil
}

// Login verifies the credentials and, on success, returns a new TokenPair.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	acc, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidLoginPassword
		}
		return nil, fmt.Errorf("accounts: login: %w", err)
	}
	if !VerifyPassword(acc.PasswordHash, password, acc.Salt) {
		return nil, common.ErrorInvalidLoginPassword
	}
	return s.issueTokens(ctx, s.mgr.DB(), acc.ID)
}

// Refresh validates a refresh token, rotates it transactionally, and returns
// a fresh TokenPair. Expired sessions yield common.ErrRefreshTokenExpired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	sess, err := s.repo.FindSession(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("accounts: refresh: %w", err)
	}
	if sess.ExpiresAt.Before(time.Now().UTC()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := s.mgr.WithTx(ctx, func(ctx context.Context, tx store.Querier) error {
		if err := s.repo.DeleteSession(ctx, tx, refreshToken); err != nil {
			return err
		}
		var issueErr error
		pair, issueErr = s.issueTokens(ctx, tx, sess.AccountID)
		return issueErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *Service) issueTokens(ctx context.Context, q store.Querier, accountID string) (*TokenPair, error) {
	access, err := auth.GenerateToken(accountID, s.jwtSecret, s.accessValidity)
	if err != nil {
		s.log.Error(ctx, "issue access token", "error", err)
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		s.log.Error(ctx, "issue refresh token", "error", err)
		return nil, common.ErrorInternal
	}
	if err := s.repo.CreateSession(ctx, q, accountID, refresh, s.refreshValidity); err != nil {
		s.log.Error(ctx, "store session", "error", err)
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
