package posts

import (
	"context"
	"fmt"

	"github.com/postbridge/postbridge/internal/store"
)

// Repository persists and loads posts. It never authenticates: owner
// identity is supplied by the caller and the repository only isolates by it.
type Repository struct {
	docs *store.DocumentStore
}

func NewRepository(docs *store.DocumentStore) *Repository {
	return &Repository{docs: docs}
}

// Create stores content and destinations atomically as one document write
// including its tags, and returns the stored post with uuid and creation
// time filled in.
func (r *Repository) Create(ctx context.Context, p *Post) (*Post, error) {
	body, err := encodePayload(p)
	if err != nil {
		return nil, err
	}
	doc, err := r.docs.CreateOrUpdate(ctx, store.Draft{
		Kind:    Kind,
		Payload: body,
		OwnerID: p.OwnerID,
		Tags:    tagsFor(p),
	})
	if err != nil {
		return nil, fmt.Errorf("posts: create: %w", err)
	}
	return decode(doc)
}

// GetByUUID returns the owner's post, or nil when the uuid does not exist,
// is not a post, or belongs to another owner. Cross-tenant lookups are
// denied here even though the underlying store would have found the row.
func (r *Repository) GetByUUID(ctx context.Context, ownerID, id string) (*Post, error) {
	doc, err := r.docs.GetByUUID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("posts: get %s: %w", id, err)
	}
	if doc == nil || doc.Kind != Kind || doc.OwnerID != ownerID {
		return nil, nil
	}
	return decode(doc)
}

// GetAllForOwner returns the owner's posts, newest first.
func (r *Repository) GetAllForOwner(ctx context.Context, ownerID string) ([]*Post, error) {
	docs, err := r.docs.ListForOwner(ctx, Kind, ownerID, store.ByCreatedDesc)
	if err != nil {
		return nil, fmt.Errorf("posts: list for owner: %w", err)
	}
	return decodeAll(docs)
}

// Feed returns every owner's posts, newest first. It backs the public feed
// read path only; authenticated reads go through GetAllForOwner.
func (r *Repository) Feed(ctx context.Context) ([]*Post, error) {
	docs, err := r.docs.ListAll(ctx, Kind, store.ByCreatedDesc)
	if err != nil {
		return nil, fmt.Errorf("posts: feed: %w", err)
	}
	return decodeAll(docs)
}

func decodeAll(docs []*store.Document) ([]*Post, error) {
	out := make([]*Post, 0, len(docs))
	for _, d := range docs {
		p, err := decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
