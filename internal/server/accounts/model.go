// Package accounts implements registration, credential verification, and
// refresh token rotation for server accounts.
package accounts

import "time"

// Account is one registered tenant. Posts and sessions hang off its ID.
type Account struct {
	ID           string
	Username     string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
}

// Session is one stored refresh token. Every refresh revokes the session it
// was presented with and stores a new one.
type Session struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
