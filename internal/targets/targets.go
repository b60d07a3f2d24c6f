// Package targets contains the platform adapters a broadcast fans out to.
// Each adapter implements publish.Publisher over one external API; the
// registry builds the name-to-publisher map from configuration.
package targets

import (
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

func orDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultTimeout}
}

// httpError reports a non-2xx response from a target's API.
type httpError struct {
	Target     string
	StatusCode int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%s http %d", e.Target, e.StatusCode)
}
