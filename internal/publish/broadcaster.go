package publish

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/posts"
)

// PostCreator persists the broadcast post before dispatch.
type PostCreator interface {
	Create(ctx context.Context, p *posts.Post) (*posts.Post, error)
}

// AttachmentResolver turns a stored media key into a URL a target can fetch.
// A nil resolver passes keys through unchanged.
type AttachmentResolver func(ctx context.Context, key string) (string, error)

// Broadcaster dispatches one post to its named targets. It is stateless per
// call: targets and their credentials are fixed at construction.
type Broadcaster struct {
	repo    PostCreator
	targets map[string]Publisher
	resolve AttachmentResolver
	log     logging.Logger
}

func NewBroadcaster(repo PostCreator, targets map[string]Publisher, resolve AttachmentResolver, log logging.Logger) *Broadcaster {
	// Target names are matched case-insensitively; normalize the registry
	// keys once here rather than on every request.
	normalized := make(map[string]Publisher, len(targets))
	for name, pub := range targets {
		normalized[strings.ToLower(strings.TrimSpace(name))] = pub
	}
	return &Broadcaster{
		repo:    repo,
		targets: normalized,
		resolve: resolve,
		log:     log.With("module", "publish"),
	}
}

// Broadcast runs one full publish cycle:
//
//  1. normalize target names (lower-case, dedupe, input order preserved),
//  2. pre-flight validation against every configured target, before any
//     side effect,
//  3. resolve stored media keys to attachment URLs,
//  4. persist the post,
//  5. attempt every target, failures not stopping siblings,
//  6. aggregate.
//
// With no targets it returns an empty map and performs no persistence. If
// every attempt succeeds it returns the per-target responses keyed by
// normalized name. If any attempt fails it returns a *BroadcastError
// carrying all outcomes. A *ValidationError from step 2 guarantees nothing
// was written.
func (b *Broadcaster) Broadcast(ctx context.Context, req Request) (map[string]Response, error) {
	names := normalizeTargets(req.Targets)
	if len(names) == 0 {
		return map[string]Response{}, nil
	}

	payload := Payload{
		Content:  req.Content,
		Link:     req.Link,
		Thread:   req.Thread,
		Language: req.Language,
	}

	for _, name := range names {
		pub, ok := b.targets[name]
		if !ok {
			continue
		}
		v, ok := pub.(Validator)
		if !ok {
			continue
		}
		if err := v.Validate(payload); err != nil {
			return nil, &ValidationError{Target: name, Err: err}
		}
	}

	attachments, err := b.resolveAttachments(ctx, req.Images)
	if err != nil {
		return nil, err
	}
	payload.Attachments = attachments

	stored, err := b.repo.Create(ctx, &posts.Post{
		OwnerID:  req.OwnerID,
		Content:  req.Content,
		Link:     req.Link,
		Labels:   req.Labels,
		Language: req.Language,
		Images:   req.Images,
		Thread:   req.Thread,
		Targets:  names,
	})
	if err != nil {
		return nil, fmt.Errorf("publish: persist post: %w", err)
	}

	// Fan out. Each attempt writes only its own slice slot, so the
	// aggregate stays input-ordered without locking.
	results := make([]Result, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = b.attempt(ctx, name, payload)
		}(i, name)
	}
	wg.Wait()

	responses := make(map[string]Response, len(results))
	failed := false
	for _, r := range results {
		if r.Err != nil {
			failed = true
			b.log.Warn(ctx, "target publish failed",
				"post", stored.UUID, "target", r.Target, "error", r.Err.Error())
			continue
		}
		responses[r.Target] = r.Response
	}
	if failed {
		return nil, &BroadcastError{Results: results}
	}
	b.log.Info(ctx, "post broadcast", "post", stored.UUID, "targets", len(results))
	return responses, nil
}

func (b *Broadcaster) attempt(ctx context.Context, name string, p Payload) Result {
	pub, ok := b.targets[name]
	if !ok {
		return Result{Target: name, Err: fmt.Errorf("%w: %s", ErrNotConfigured, name)}
	}
	resp, err := pub.Publish(ctx, p)
	if err != nil {
		return Result{Target: name, Err: err}
	}
	return Result{Target: name, Response: resp}
}

func (b *Broadcaster) resolveAttachments(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		u := key
		if b.resolve != nil {
			var err error
			u, err = b.resolve(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("publish: resolve attachment %s: %w", key, err)
			}
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// normalizeTargets lower-cases and trims target names and drops blanks and
// duplicates, keeping first-occurrence order so the aggregate matches the
// input order.
func normalizeTargets(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
