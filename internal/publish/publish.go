// Package publish implements the broadcast orchestrator: it fans one post
// out to the configured targets and aggregates per-target outcomes into a
// single deterministic result. Delivery is at-most-once per target; there is
// no retry queue.
package publish

import "context"

// Payload is the platform-independent content handed to each target. The
// orchestrator has no knowledge of platform wire formats beyond this shape.
type Payload struct {
	Content     string
	Link        string
	Thread      []string
	Language    string
	Attachments []string
}

// Response is a target's own description of what it created.
type Response struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

// Publisher is the capability a configured target exposes.
type Publisher interface {
	Publish(ctx context.Context, post Payload) (Response, error)
}

// Validator is implemented by publishers that impose structural constraints
// on a post. Validate runs during pre-flight, before anything is persisted
// or dispatched.
type Validator interface {
	Validate(post Payload) error
}

// Request is one logical post to broadcast. Images carry stored media keys;
// they are resolved to fetchable URLs before dispatch.
type Request struct {
	OwnerID  string
	Content  string
	Link     string
	Labels   []string
	Language string
	Images   []string
	Thread   []string
	Targets  []string
}

// Result is one target's outcome inside a broadcast attempt.
type Result struct {
	Target   string
	Response Response
	Err      error
}

// Failed reports whether the target's attempt failed.
func (r Result) Failed() bool { return r.Err != nil }
