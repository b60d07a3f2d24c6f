package targets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/postbridge/postbridge/internal/publish"
)

// Mastodon publishes through the statuses endpoint of a Mastodon-compatible
// instance. Thread messages become replies chained with in_reply_to_id, so
// the instance renders them as one conversation under the head status.
type Mastodon struct {
	BaseURL     string
	AccessToken string
	HTTP        *http.Client
}

type mastodonStatusRequest struct {
	Status      string `json:"status"`
	InReplyToID string `json:"in_reply_to_id,omitempty"`
	Language    string `json:"language,omitempty"`
}

type mastodonStatusResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (m *Mastodon) Publish(ctx context.Context, post publish.Payload) (publish.Response, error) {
	head, err := m.postStatus(ctx, composeStatus(post), "", post.Language)
	if err != nil {
		return publish.Response{}, err
	}

	replyTo := head.ID
	for _, msg := range post.Thread {
		reply, err := m.postStatus(ctx, msg, replyTo, post.Language)
		if err != nil {
			return publish.Response{}, fmt.Errorf("thread reply to %s: %w", replyTo, err)
		}
		replyTo = reply.ID
	}

	return publish.Response{ID: head.ID, URL: head.URL}, nil
}

func (m *Mastodon) postStatus(ctx context.Context, status, inReplyTo, language string) (mastodonStatusResponse, error) {
	body, err := json.Marshal(mastodonStatusRequest{
		Status:      status,
		InReplyToID: inReplyTo,
		Language:    language,
	})
	if err != nil {
		return mastodonStatusResponse{}, fmt.Errorf("mastodon marshal: %w", err)
	}

	endpoint := strings.TrimSuffix(m.BaseURL, "/") + "/api/v1/statuses"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return mastodonStatusResponse{}, fmt.Errorf("mastodon request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.AccessToken)

	resp, err := orDefault(m.HTTP).Do(req)
	if err != nil {
		return mastodonStatusResponse{}, fmt.Errorf("mastodon send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mastodonStatusResponse{}, &httpError{Target: "mastodon", StatusCode: resp.StatusCode}
	}

	var created mastodonStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return mastodonStatusResponse{}, fmt.Errorf("mastodon decode: %w", err)
	}
	return created, nil
}

// composeStatus folds the link and attachment URLs into the status text.
// Mastodon turns bare URLs into cards and previews, so one text body is
// enough without a separate media upload round-trip.
func composeStatus(post publish.Payload) string {
	parts := make([]string, 0, 2+len(post.Attachments))
	parts = append(parts, post.Content)
	if post.Link != "" {
		parts = append(parts, post.Link)
	}
	parts = append(parts, post.Attachments...)
	return strings.Join(parts, "\n\n")
}
