package targets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/postbridge/postbridge/internal/publish"
)

// Webhook delivers the whole post as a single JSON document to a configured
// URL. Any 2xx status counts as delivered; if the receiver answers with an
// {id,url} body those fields are carried back, otherwise they stay empty.
type Webhook struct {
	URL  string
	HTTP *http.Client
}

type webhookPost struct {
	Content     string   `json:"content"`
	Link        string   `json:"link,omitempty"`
	Thread      []string `json:"thread,omitempty"`
	Language    string   `json:"language,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

func (w *Webhook) Publish(ctx context.Context, post publish.Payload) (publish.Response, error) {
	body, err := json.Marshal(webhookPost{
		Content:     post.Content,
		Link:        post.Link,
		Thread:      post.Thread,
		Language:    post.Language,
		Attachments: post.Attachments,
	})
	if err != nil {
		return publish.Response{}, fmt.Errorf("webhook marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return publish.Response{}, fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := orDefault(w.HTTP).Do(req)
	if err != nil {
		return publish.Response{}, fmt.Errorf("webhook send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return publish.Response{}, &httpError{Target: "webhook", StatusCode: resp.StatusCode}
	}

	// Receivers are not required to answer with a body.
	var out publish.Response
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out, nil
}
