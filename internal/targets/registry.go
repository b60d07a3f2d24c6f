package targets

import (
	"fmt"
	"strings"

	"github.com/postbridge/postbridge/internal/publish"
)

// Supported adapter types, matched case-insensitively against config.
const (
	TypeMastodon = "mastodon"
	TypeTelegram = "telegram"
	TypeWebhook  = "webhook"
)

// Config describes one configured publish destination.
type Config struct {
	Type        string `json:"type"`
	BaseURL     string `json:"base_url,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	BotToken    string `json:"bot_token,omitempty"`
	ChatID      string `json:"chat_id,omitempty"`
	URL         string `json:"url,omitempty"`
}

// NewRegistry builds the publisher map a broadcaster dispatches through.
// Target names are case-normalized once here, and incomplete or unknown
// entries fail construction so a bad config aborts startup instead of
// failing every broadcast.
func NewRegistry(configs map[string]Config) (map[string]publish.Publisher, error) {
	registry := make(map[string]publish.Publisher, len(configs))
	for name, cfg := range configs {
		pub, err := newPublisher(cfg)
		if err != nil {
			return nil, fmt.Errorf("targets: %s: %w", name, err)
		}
		registry[strings.ToLower(strings.TrimSpace(name))] = pub
	}
	return registry, nil
}

func newPublisher(cfg Config) (publish.Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case TypeMastodon:
		if cfg.BaseURL == "" || cfg.AccessToken == "" {
			return nil, fmt.Errorf("mastodon needs base_url and access_token")
		}
		return &Mastodon{BaseURL: cfg.BaseURL, AccessToken: cfg.AccessToken}, nil
	case TypeTelegram:
		if cfg.BotToken == "" || cfg.ChatID == "" {
			return nil, fmt.Errorf("telegram needs bot_token and chat_id")
		}
		return &Telegram{BotToken: cfg.BotToken, ChatID: cfg.ChatID}, nil
	case TypeWebhook:
		if cfg.URL == "" {
			return nil, fmt.Errorf("webhook needs url")
		}
		return &Webhook{URL: cfg.URL}, nil
	default:
		return nil, fmt.Errorf("unsupported type %q", cfg.Type)
	}
}
