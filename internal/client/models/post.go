// Package models defines the client-side views of server objects and the
// wire shapes the CLI sends.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Draft is a post as composed locally, before the server assigns identity.
// Images are storage keys obtained from the upload command.
type Draft struct {
	Content  string   `json:"content"`
	Link     string   `json:"link,omitempty"`
	Labels   []string `json:"labels,omitempty"`
	Language string   `json:"language,omitempty"`
	Images   []string `json:"images,omitempty"`
	Thread   []string `json:"thread,omitempty"`
	Targets  []string `json:"targets"`
}

// Post is the server's view of a stored post.
type Post struct {
	UUID      string    `json:"uuid"`
	Content   string    `json:"content"`
	Link      string    `json:"link,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
	Language  string    `json:"language,omitempty"`
	Images    []string  `json:"images,omitempty"`
	Thread    []string  `json:"thread,omitempty"`
	Targets   []string  `json:"targets,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// String renders a one-line overview suitable for list output.
func (p Post) String() string {
	content := p.Content
	if len(content) > 42 {
		content = content[:39] + "..."
	}
	return fmt.Sprintf("%s  %s  %q  -> %s",
		p.UUID, p.CreatedAt.Format("2006-01-02 15:04"), content, strings.Join(p.Targets, ","))
}

// TargetResult is one target's outcome within a publish request.
type TargetResult struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// PublishReport aggregates per-target outcomes of one publish request.
// Err is empty when every target succeeded; a partially failed request
// still carries the successful outcomes in Results.
type PublishReport struct {
	Err     string
	Results map[string]TargetResult
}

func (r *PublishReport) Failed() bool { return r.Err != "" }
