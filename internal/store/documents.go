package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrStore marks any document operation that failed because the underlying
// transaction failed. The cause (including a classified Violation, if any)
// stays in the chain. Lookup misses are not errors; they return nil.
var ErrStore = errors.New("document store failure")

// Tag is a (name, kind) label attached to a document. A document's tag set
// is replaced wholesale on every write; partial tag updates do not exist.
type Tag struct {
	Name string
	Kind string
}

// Document is the store's only persisted entity shape: a tenant-owned,
// tagged record whose payload is opaque to the store and interpreted by the
// caller.
type Document struct {
	UUID      string
	SearchKey string
	Kind      string
	Payload   string
	OwnerID   string
	CreatedAt time.Time
	Tags      []Tag
}

// Draft is the input to CreateOrUpdate. An empty SearchKey asks the store to
// derive one as "kind:uuid" from the generated document id.
type Draft struct {
	Kind      string
	Payload   string
	OwnerID   string
	SearchKey string
	Tags      []Tag
}

// Order selects list ordering.
type Order int

const (
	// ByCreatedDesc returns newest documents first. Rows whose creation
	// times compare equal keep reverse insertion order via rowid.
	ByCreatedDesc Order = iota
	ByCreatedAsc
)

func (o Order) clause() string {
	if o == ByCreatedAsc {
		return "ORDER BY created_at ASC, rowid ASC"
	}
	return "ORDER BY created_at DESC, rowid DESC"
}

// DocumentStore persists tenant-owned tagged documents. Every public call
// binds its own scoped transaction; a connection is never held across calls.
type DocumentStore struct {
	mgr *Manager
}

func NewDocumentStore(mgr *Manager) *DocumentStore {
	return &DocumentStore{mgr: mgr}
}

const documentColumns = `uuid, search_key, kind, payload, owner_id, created_at`

// CreateOrUpdate upserts one document together with its tag set. When a
// SearchKey is given and a row already exists for (SearchKey, OwnerID), the
// payload is updated and the tag set replaced while uuid, kind, owner, and
// created_at are preserved. Otherwise a new row is inserted. The resulting
// document is returned either way.
//
// The check is read-then-write: the single-writer engine serializes the
// enclosing transactions, which is what makes the (SearchKey, OwnerID)
// dedupe key safe without an ON CONFLICT clause.
func (s *DocumentStore) CreateOrUpdate(ctx context.Context, d Draft) (*Document, error) {
	tags := dedupeTags(d.Tags)
	var doc *Document
	err := s.mgr.WithTx(ctx, func(ctx context.Context, tx Querier) error {
		if d.SearchKey != "" {
			existing, err := selectDocument(ctx, tx,
				`WHERE search_key = ? AND owner_id = ?`, d.SearchKey, d.OwnerID)
			if err != nil {
				return err
			}
			if existing != nil {
				if _, err := Exec(ctx, tx,
					`UPDATE documents SET payload = ? WHERE uuid = ?`,
					d.Payload, existing.UUID); err != nil {
					return err
				}
				if err := replaceTags(ctx, tx, existing.UUID, tags); err != nil {
					return err
				}
				existing.Payload = d.Payload
				existing.Tags = tags
				doc = existing
				return nil
			}
		}

		id := uuid.NewString()
		key := d.SearchKey
		if key == "" {
			key = d.Kind + ":" + id
		}
		now := time.Now().UTC()
		if _, err := Exec(ctx, tx,
			`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			id, key, d.Kind, d.Payload, d.OwnerID, now); err != nil {
			return err
		}
		if err := replaceTags(ctx, tx, id, tags); err != nil {
			return err
		}
		doc = &Document{
			UUID:      id,
			SearchKey: key,
			Kind:      d.Kind,
			Payload:   d.Payload,
			OwnerID:   d.OwnerID,
			CreatedAt: now,
			Tags:      tags,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create or update: %w", ErrStore, err)
	}
	return doc, nil
}

// GetByKey returns the document with the given search key, tags attached,
// or nil when no such document exists.
func (s *DocumentStore) GetByKey(ctx context.Context, searchKey string) (*Document, error) {
	return s.getWhere(ctx, `WHERE search_key = ?`, searchKey)
}

// GetByUUID returns the document with the given uuid, tags attached, or nil
// when no such document exists.
func (s *DocumentStore) GetByUUID(ctx context.Context, id string) (*Document, error) {
	return s.getWhere(ctx, `WHERE uuid = ?`, id)
}

// ListForOwner returns every document of the given kind owned by ownerID,
// tags attached, in the requested order.
func (s *DocumentStore) ListForOwner(ctx context.Context, kind, ownerID string, ord Order) ([]*Document, error) {
	return s.list(ctx, `WHERE kind = ? AND owner_id = ?`, ord, kind, ownerID)
}

// ListAll returns every owner's documents of the given kind. It exists for
// the whole-site feed reader; tenant-scoped callers use ListForOwner.
func (s *DocumentStore) ListAll(ctx context.Context, kind string, ord Order) ([]*Document, error) {
	return s.list(ctx, `WHERE kind = ?`, ord, kind)
}

func (s *DocumentStore) getWhere(ctx context.Context, where string, args ...any) (*Document, error) {
	var doc *Document
	err := s.mgr.WithTx(ctx, func(ctx context.Context, tx Querier) error {
		d, err := selectDocument(ctx, tx, where, args...)
		if err != nil || d == nil {
			return err
		}
		if err := attachTags(ctx, tx, []*Document{d}); err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: lookup: %w", ErrStore, err)
	}
	return doc, nil
}

func (s *DocumentStore) list(ctx context.Context, where string, ord Order, args ...any) ([]*Document, error) {
	var docs []*Document
	err := s.mgr.WithTx(ctx, func(ctx context.Context, tx Querier) error {
		query := `SELECT ` + documentColumns + ` FROM documents ` + where + ` ` + ord.clause()
		err := Query(ctx, tx, query, func(rows *sql.Rows) error {
			var d Document
			if err := rows.Scan(&d.UUID, &d.SearchKey, &d.Kind, &d.Payload, &d.OwnerID, &d.CreatedAt); err != nil {
				return err
			}
			docs = append(docs, &d)
			return nil
		}, args...)
		if err != nil {
			return err
		}
		return attachTags(ctx, tx, docs)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStore, err)
	}
	return docs, nil
}

func selectDocument(ctx context.Context, q Querier, where string, args ...any) (*Document, error) {
	var doc *Document
	err := Query(ctx, q,
		`SELECT `+documentColumns+` FROM documents `+where,
		func(rows *sql.Rows) error {
			var d Document
			if err := rows.Scan(&d.UUID, &d.SearchKey, &d.Kind, &d.Payload, &d.OwnerID, &d.CreatedAt); err != nil {
				return err
			}
			doc = &d
			return nil
		}, args...)
	return doc, err
}

// attachTags loads the tag sets for all given documents in one query.
func attachTags(ctx context.Context, q Querier, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[string]*Document, len(docs))
	args := make([]any, 0, len(docs))
	for _, d := range docs {
		byID[d.UUID] = d
		args = append(args, d.UUID)
	}
	query := `SELECT document_uuid, name, kind FROM document_tags
		WHERE document_uuid IN (` + questionList(len(docs)) + `)
		ORDER BY document_uuid, kind, name`
	return Query(ctx, q, query, func(rows *sql.Rows) error {
		var id string
		var t Tag
		if err := rows.Scan(&id, &t.Name, &t.Kind); err != nil {
			return err
		}
		if d := byID[id]; d != nil {
			d.Tags = append(d.Tags, t)
		}
		return nil
	}, args...)
}

// replaceTags deletes the document's tag rows and writes the given set.
func replaceTags(ctx context.Context, q Querier, docUUID string, tags []Tag) error {
	if _, err := Exec(ctx, q,
		`DELETE FROM document_tags WHERE document_uuid = ?`, docUUID); err != nil {
		return err
	}
	for _, t := range tags {
		if _, err := Exec(ctx, q,
			`INSERT INTO document_tags (document_uuid, name, kind) VALUES (?, ?, ?)`,
			docUUID, t.Name, t.Kind); err != nil {
			return err
		}
	}
	return nil
}

// dedupeTags collapses duplicate (name, kind) pairs, keeping first-seen
// order, so set semantics hold even for sloppy input.
func dedupeTags(tags []Tag) []Tag {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[Tag]struct{}, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// questionList returns n comma-joined SQL placeholders: "?,?,?".
func questionList(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
