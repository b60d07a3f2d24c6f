package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postbridge/postbridge/internal/common"
)

func TestRepository_LookupMisses(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.repo.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.repo.GetByID(ctx, "no-such-id")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.repo.FindSession(ctx, "no-such-token")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRepository_GetByIDRoundTrip(t *testing.T) {
	svc, seed := newTestService(t)
	ctx := context.Background()

	acc, err := svc.repo.GetByID(ctx, seed.ID)
	require.NoError(t, err)

	assert.Equal(t, seed.Username, acc.Username)
	assert.Equal(t, seed.PasswordHash, acc.PasswordHash)
	assert.Equal(t, seed.Salt, acc.Salt)
	assert.WithinDuration(t, time.Now().UTC(), acc.CreatedAt, time.Minute)
}

func TestRepository_DeleteSessionIsIdempotent(t *testing.T) {
	svc, seed := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.repo.CreateSession(ctx, svc.mgr.DB(), seed.ID, "tok-1", time.Hour))
	require.NoError(t, svc.repo.DeleteSession(ctx, svc.mgr.DB(), "tok-1"))

	// Deleting a token that is already gone is not an error.
	require.NoError(t, svc.repo.DeleteSession(ctx, svc.mgr.DB(), "tok-1"))
}

func TestRepository_SessionRequiresKnownAccount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.repo.CreateSession(ctx, svc.mgr.DB(), "ghost-account", "tok-2", time.Hour)
	require.Error(t, err)
}
