// Package posts is the typed view over the document store for the "post"
// document kind. It owns the payload encoding and the tag mapping: publish
// destinations become tags of kind "target", free-form labels become tags of
// kind "label".
package posts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/postbridge/postbridge/internal/store"
)

// Kind is the document kind this repository reads and writes.
const Kind = "post"

// Tag kinds used by the repository.
const (
	TagKindTarget = "target"
	TagKindLabel  = "label"
)

// Post is one microblog entry together with its publish destinations.
type Post struct {
	UUID      string
	OwnerID   string
	Content   string
	Link      string
	Labels    []string
	Language  string
	Images    []string
	Thread    []string
	Targets   []string
	CreatedAt time.Time
}

// payload is the JSON shape persisted as the document body. Identity and
// destinations live outside the payload, on document columns and tags.
type payload struct {
	Content  string   `json:"content"`
	Link     string   `json:"link,omitempty"`
	Labels   []string `json:"labels,omitempty"`
	Language string   `json:"language,omitempty"`
	Images   []string `json:"images,omitempty"`
	Thread   []string `json:"thread,omitempty"`
}

func encodePayload(p *Post) (string, error) {
	body, err := json.Marshal(payload{
		Content:  p.Content,
		Link:     p.Link,
		Labels:   p.Labels,
		Language: p.Language,
		Images:   p.Images,
		Thread:   p.Thread,
	})
	if err != nil {
		return "", fmt.Errorf("posts: encode payload: %w", err)
	}
	return string(body), nil
}

func tagsFor(p *Post) []store.Tag {
	tags := make([]store.Tag, 0, len(p.Targets)+len(p.Labels))
	for _, name := range p.Targets {
		tags = append(tags, store.Tag{Name: name, Kind: TagKindTarget})
	}
	for _, name := range p.Labels {
		tags = append(tags, store.Tag{Name: name, Kind: TagKindLabel})
	}
	return tags
}

func decode(doc *store.Document) (*Post, error) {
	var body payload
	if err := json.Unmarshal([]byte(doc.Payload), &body); err != nil {
		return nil, fmt.Errorf("posts: decode payload of %s: %w", doc.UUID, err)
	}
	p := &Post{
		UUID:      doc.UUID,
		OwnerID:   doc.OwnerID,
		Content:   body.Content,
		Link:      body.Link,
		Labels:    body.Labels,
		Language:  body.Language,
		Images:    body.Images,
		Thread:    body.Thread,
		CreatedAt: doc.CreatedAt,
	}
	for _, t := range doc.Tags {
		if t.Kind == TagKindTarget {
			p.Targets = append(p.Targets, t.Name)
		}
	}
	return p, nil
}
