package targets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/postbridge/postbridge/internal/publish"
)

const telegramAPIBase = "https://api.telegram.org"

// telegramMaxMessages caps the chain length per post. The Bot API has no
// reply-thread rendering for channels, so long chains read as spam there.
const telegramMaxMessages = 2

// Telegram publishes through the Bot API's sendMessage method, one message
// for the post body and one per thread entry. Chains longer than
// telegramMaxMessages are rejected during pre-flight validation, before
// anything is persisted.
type Telegram struct {
	BotToken string
	ChatID   string
	// APIBase overrides the Bot API host, mainly for tests.
	APIBase string
	HTTP    *http.Client
}

type telegramSendRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramSendResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (t *Telegram) Validate(post publish.Payload) error {
	if n := 1 + len(post.Thread); n > telegramMaxMessages {
		return fmt.Errorf("telegram allows at most %d messages per post, got %d", telegramMaxMessages, n)
	}
	return nil
}

func (t *Telegram) Publish(ctx context.Context, post publish.Payload) (publish.Response, error) {
	if err := t.Validate(post); err != nil {
		return publish.Response{}, err
	}

	head, err := t.sendMessage(ctx, composeStatus(post))
	if err != nil {
		return publish.Response{}, err
	}
	for _, msg := range post.Thread {
		if _, err := t.sendMessage(ctx, msg); err != nil {
			return publish.Response{}, fmt.Errorf("thread message: %w", err)
		}
	}

	return publish.Response{ID: strconv.FormatInt(head.Result.MessageID, 10)}, nil
}

func (t *Telegram) sendMessage(ctx context.Context, text string) (telegramSendResponse, error) {
	body, err := json.Marshal(telegramSendRequest{ChatID: t.ChatID, Text: text})
	if err != nil {
		return telegramSendResponse{}, fmt.Errorf("telegram marshal: %w", err)
	}

	base := t.APIBase
	if base == "" {
		base = telegramAPIBase
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", base, url.PathEscape(t.BotToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return telegramSendResponse{}, fmt.Errorf("telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := orDefault(t.HTTP).Do(req)
	if err != nil {
		return telegramSendResponse{}, fmt.Errorf("telegram send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return telegramSendResponse{}, &httpError{Target: "telegram", StatusCode: resp.StatusCode}
	}

	var sent telegramSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil {
		return telegramSendResponse{}, fmt.Errorf("telegram decode: %w", err)
	}
	if !sent.OK {
		return telegramSendResponse{}, fmt.Errorf("telegram api reported failure")
	}
	return sent, nil
}
