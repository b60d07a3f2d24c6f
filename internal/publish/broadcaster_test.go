package publish

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/posts"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakePublisher struct {
	mu    sync.Mutex
	calls []Payload
	resp  Response
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, p Payload) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	return f.resp, f.err
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePublisher) lastCall() Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeValidatingPublisher struct {
	fakePublisher
	validateErr error
}

func (f *fakeValidatingPublisher) Validate(Payload) error { return f.validateErr }

type fakeRepo struct {
	mu      sync.Mutex
	created []*posts.Post
	err     error
}

func (f *fakeRepo) Create(_ context.Context, p *posts.Post) (*posts.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cp := *p
	cp.UUID = "post-1"
	cp.CreatedAt = time.Now().UTC()
	f.created = append(f.created, &cp)
	return &cp, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func newBroadcaster(repo PostCreator, targets map[string]Publisher) *Broadcaster {
	return NewBroadcaster(repo, targets, nil, nopLogger{})
}

func TestBroadcast_EmptyTargetsNoSideEffects(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	b := newBroadcaster(repo, map[string]Publisher{"mastodon": pub})

	for _, targets := range [][]string{nil, {}} {
		got, err := b.Broadcast(context.Background(), Request{
			OwnerID: "o", Content: "hi", Targets: targets,
		})
		require.NoError(t, err)
		require.NotNil(t, got, "empty broadcast still returns a map")
		assert.Empty(t, got)
	}
	assert.Zero(t, repo.count(), "no targets means no persistence")
	assert.Zero(t, pub.callCount(), "no targets means no dispatch")
}

func TestBroadcast_AllTargetsSucceed(t *testing.T) {
	repo := &fakeRepo{}
	m := &fakePublisher{resp: Response{ID: "1", URL: "https://mast/1"}}
	w := &fakePublisher{resp: Response{ID: "2"}}
	b := newBroadcaster(repo, map[string]Publisher{"mastodon": m, "webhook": w})

	got, err := b.Broadcast(context.Background(), Request{
		OwnerID: "o",
		Content: "hi",
		Targets: []string{"Mastodon", "WEBHOOK"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]Response{
		"mastodon": {ID: "1", URL: "https://mast/1"},
		"webhook":  {ID: "2"},
	}, got)

	require.Equal(t, 1, repo.count())
	assert.Equal(t, []string{"mastodon", "webhook"}, repo.created[0].Targets,
		"persisted targets are normalized")
	assert.Equal(t, 1, m.callCount())
	assert.Equal(t, 1, w.callCount())
}

func TestBroadcast_PartialFailureCarriesAllOutcomes(t *testing.T) {
	repo := &fakeRepo{}
	ok := &fakePublisher{resp: Response{ID: "ok"}}
	b := newBroadcaster(repo, map[string]Publisher{"mastodon": ok})

	got, err := b.Broadcast(context.Background(), Request{
		OwnerID: "o", Content: "hi", Targets: []string{"mastodon", "missing"},
	})
	assert.Nil(t, got)

	var be *BroadcastError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Results, 2, "every attempted target appears exactly once")

	assert.Equal(t, "mastodon", be.Results[0].Target)
	assert.False(t, be.Results[0].Failed())
	assert.Equal(t, Response{ID: "ok"}, be.Results[0].Response,
		"partial success is carried inside the composite failure")

	assert.Equal(t, "missing", be.Results[1].Target)
	require.True(t, be.Results[1].Failed())
	assert.ErrorIs(t, be.Results[1].Err, ErrNotConfigured)

	assert.Equal(t, 1, ok.callCount(), "configured sibling must still be attempted")
	assert.Equal(t, 1, repo.count(), "the post is persisted before dispatch")
}

func TestBroadcast_FailureDoesNotStopSiblings(t *testing.T) {
	repo := &fakeRepo{}
	bad := &fakePublisher{err: errors.New("api down")}
	good := &fakePublisher{resp: Response{ID: "x"}}
	b := newBroadcaster(repo, map[string]Publisher{"bad": bad, "good": good})

	_, err := b.Broadcast(context.Background(), Request{
		OwnerID: "o", Content: "hi", Targets: []string{"bad", "good"},
	})

	var be *BroadcastError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Results, 2)
	assert.EqualError(t, be.Results[0].Err, "api down")
	assert.False(t, be.Results[1].Failed())
	assert.Equal(t, 1, good.callCount())
}

func TestBroadcast_DuplicateCasingDispatchesOnce(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{resp: Response{ID: "t"}}
	b := newBroadcaster(repo, map[string]Publisher{"tg": pub})

	got, err := b.Broadcast(context.Background(), Request{
		OwnerID: "o", Content: "hi", Targets: []string{"TG", "tg", " Tg "},
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, pub.callCount(), "same target under different casing dispatches once")
	require.Equal(t, 1, repo.count())
	assert.Equal(t, []string{"tg"}, repo.created[0].Targets)
}

func TestBroadcast_RegistryKeysAreCaseNormalized(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	b := newBroadcaster(repo, map[string]Publisher{" Mastodon ": pub})

	_, err := b.Broadcast(context.Background(), Request{
		OwnerID: "o", Content: "hi", Targets: []string{"mastodon"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.callCount())
}

func TestBroadcast_ValidationFailureShortCircuits(t *testing.T) {
	repo := &fakeRepo{}
	tv := &fakeValidatingPublisher{validateErr: errors.New("thread too long")}
	other := &fakePublisher{}
	b := newBroadcaster(repo, map[string]Publisher{"telegram": tv, "other": other})

	got, err := b.Broadcast(context.Background(), Request{
		OwnerID: "o",
		Content: "hi",
		Thread:  []string{"2", "3", "4"},
		Targets: []string{"telegram", "other"},
	})
	assert.Nil(t, got)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "telegram", ve.Target)
	assert.ErrorContains(t, ve, "thread too long")

	assert.Zero(t, repo.count(), "validation failure must not persist anything")
	assert.Zero(t, tv.callCount(), "validation failure must not dispatch")
	assert.Zero(t, other.callCount(), "validation failure must not dispatch siblings either")
}

func TestBroadcast_PayloadCarriesPostFields(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	b := newBroadcaster(repo, map[string]Publisher{"m": pub})

	_, err := b.Broadcast(context.Background(), Request{
		OwnerID:  "o",
		Content:  "hello",
		Link:     "https://example.org",
		Language: "de",
		Thread:   []string{"more"},
		Targets:  []string{"m"},
	})
	require.NoError(t, err)

	call := pub.lastCall()
	assert.Equal(t, "hello", call.Content)
	assert.Equal(t, "https://example.org", call.Link)
	assert.Equal(t, "de", call.Language)
	assert.Equal(t, []string{"more"}, call.Thread)
}

func TestBroadcast_ResolvesAttachments(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	resolve := func(_ context.Context, key string) (string, error) {
		return "https://cdn.example/" + key, nil
	}
	b := NewBroadcaster(repo, map[string]Publisher{"m": pub}, resolve, nopLogger{})

	_, err := b.Broadcast(context.Background(), Request{
		OwnerID: "o", Content: "hi", Images: []string{"a.png"}, Targets: []string{"m"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example/a.png"}, pub.lastCall().Attachments)
	require.Equal(t, 1, repo.count())
	assert.Equal(t, []string{"a.png"}, repo.created[0].Images,
		"the stored post keeps media keys, not resolved URLs")
}

func TestBroadcast_ResolverErrorAbortsBeforePersist(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	resolve := func(context.Context, string) (string, error) {
		return "", errors.New("presign failed")
	}
	b := NewBroadcaster(repo, map[string]Publisher{"m": pub}, resolve, nopLogger{})

	_, err := b.Broadcast(context.Background(), Request{
		OwnerID: "o", Content: "hi", Images: []string{"a.png"}, Targets: []string{"m"},
	})
	require.ErrorContains(t, err, "resolve attachment")
	assert.Zero(t, repo.count())
	assert.Zero(t, pub.callCount())
}

func TestBroadcast_PersistErrorAbortsDispatch(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	pub := &fakePublisher{}
	b := newBroadcaster(repo, map[string]Publisher{"m": pub})

	_, err := b.Broadcast(context.Background(), Request{
		OwnerID: "o", Content: "hi", Targets: []string{"m"},
	})
	require.ErrorContains(t, err, "persist post")
	assert.Zero(t, pub.callCount())
}
