package posts

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/store"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func newTestRepo(t *testing.T) (*Repository, *store.DocumentStore) {
	t.Helper()
	mgr, err := store.Open(filepath.Join(t.TempDir(), "posts.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	seed := store.SeedAccount{
		ID:           "seed-account",
		Username:     "admin",
		PasswordHash: []byte("hash"),
		Salt:         []byte("salt"),
	}
	require.NoError(t, store.NewMigrator(mgr, nopLogger{}, store.Migrations(seed)).Run(context.Background()))

	docs := store.NewDocumentStore(mgr)
	return NewRepository(docs), docs
}

func TestCreate_RoundTripsTypedFields(t *testing.T) {
	repo, docs := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &Post{
		OwnerID:  "owner-1",
		Content:  "hello fediverse",
		Link:     "https://example.org/ref",
		Labels:   []string{"intro", "meta"},
		Language: "en",
		Images:   []string{"img/abc.png"},
		Targets:  []string{"mastodon", "telegram"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.UUID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByUUID(ctx, "owner-1", created.UUID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hello fediverse", got.Content)
	assert.Equal(t, "https://example.org/ref", got.Link)
	assert.Equal(t, []string{"intro", "meta"}, got.Labels)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, []string{"img/abc.png"}, got.Images)
	assert.ElementsMatch(t, []string{"mastodon", "telegram"}, got.Targets)

	// The generated search key follows the kind:uuid convention.
	doc, err := docs.GetByKey(ctx, "post:"+created.UUID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, created.UUID, doc.UUID)
}

func TestCreate_StoresTargetsAndLabelsAsTags(t *testing.T) {
	repo, docs := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &Post{
		OwnerID: "owner-1",
		Content: "tagged",
		Labels:  []string{"news"},
		Targets: []string{"webhook"},
	})
	require.NoError(t, err)

	doc, err := docs.GetByUUID(ctx, created.UUID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.ElementsMatch(t, []store.Tag{
		{Name: "webhook", Kind: TagKindTarget},
		{Name: "news", Kind: TagKindLabel},
	}, doc.Tags)
}

func TestGetByUUID_DeniesCrossTenantReads(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &Post{OwnerID: "owner-a", Content: "mine"})
	require.NoError(t, err)

	got, err := repo.GetByUUID(ctx, "owner-b", created.UUID)
	require.NoError(t, err)
	assert.Nil(t, got, "another owner's uuid must read as not found")

	own, err := repo.GetByUUID(ctx, "owner-a", created.UUID)
	require.NoError(t, err)
	require.NotNil(t, own)
	assert.Equal(t, "mine", own.Content)
}

func TestGetByUUID_MissingReturnsNil(t *testing.T) {
	repo, _ := newTestRepo(t)

	got, err := repo.GetByUUID(context.Background(), "owner-a", "no-such-uuid")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetByUUID_OtherKindsReadAsNotFound(t *testing.T) {
	repo, docs := newTestRepo(t)
	ctx := context.Background()

	doc, err := docs.CreateOrUpdate(ctx, store.Draft{
		Kind:    "page",
		Payload: `{"content":"not a post"}`,
		OwnerID: "owner-a",
	})
	require.NoError(t, err)

	got, err := repo.GetByUUID(ctx, "owner-a", doc.UUID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetAllForOwner_NewestFirstOwnerScoped(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, content := range []string{"first", "second"} {
		_, err := repo.Create(ctx, &Post{OwnerID: "owner-a", Content: content})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, &Post{OwnerID: "owner-b", Content: "other"})
	require.NoError(t, err)

	got, err := repo.GetAllForOwner(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Content)
	assert.Equal(t, "first", got[1].Content)
}

func TestFeed_SpansAllOwners(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &Post{OwnerID: "owner-a", Content: "a"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &Post{OwnerID: "owner-b", Content: "b"})
	require.NoError(t, err)

	got, err := repo.Feed(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Content, "feed is newest first")
}

func TestGetAllForOwner_CorruptPayloadSurfaces(t *testing.T) {
	repo, docs := newTestRepo(t)
	ctx := context.Background()

	_, err := docs.CreateOrUpdate(ctx, store.Draft{
		Kind:    Kind,
		Payload: "{not json",
		OwnerID: "owner-a",
	})
	require.NoError(t, err)

	_, err = repo.GetAllForOwner(ctx, "owner-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode payload")
}
