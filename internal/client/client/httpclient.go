package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/postbridge/postbridge/internal/client/models"
	"github.com/postbridge/postbridge/internal/common"
)

const requestTimeout = 12 * time.Second

// HTTPClient talks JSON over HTTP to the postbridge server. It is not safe
// for concurrent use: the interactive CLI drives one request at a time.
type HTTPClient struct {
	endpointURL  string
	http         *http.Client
	accessToken  string
	refreshToken string
}

func NewHTTPClient(endpointURL string) *HTTPClient {
	return &HTTPClient{
		endpointURL: strings.TrimSuffix(endpointURL, "/"),
		http:        &http.Client{Timeout: requestTimeout},
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// apiError carries a server-reported failure that maps to no sentinel.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server: %s (http %d)", e.Message, e.Status)
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", credentials{Username: username, Password: password}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	var pair tokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{Username: username, Password: password}, &pair); err != nil {
		return err
	}
	c.accessToken = pair.AccessToken
	c.refreshToken = pair.RefreshToken
	return nil
}

// Logout drops the session tokens. The server-side refresh session simply
// expires; no call is required.
func (c *HTTPClient) Logout() {
	c.accessToken = ""
	c.refreshToken = ""
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/readyz", nil, &out); err != nil {
		return err
	}
	if out.Status != "ready" {
		return ErrUnavailable
	}
	return nil
}

// CreatePost publishes a draft. Both a fully and a partially successful
// request return a report; only the transport, authentication, and
// validation failures surface as errors.
func (c *HTTPClient) CreatePost(ctx context.Context, draft models.Draft) (*models.PublishReport, error) {
	body, status, err := c.doRaw(ctx, http.MethodPost, "/api/posts", draft)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var responses map[string]models.TargetResult
		if err := json.Unmarshal(body, &responses); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		results := make(map[string]models.TargetResult, len(responses))
		for name, r := range responses {
			r.OK = true
			results[name] = r
		}
		return &models.PublishReport{Results: results}, nil

	case http.StatusServiceUnavailable:
		var composite struct {
			Error   string                         `json:"error"`
			Results map[string]models.TargetResult `json:"results"`
		}
		if err := json.Unmarshal(body, &composite); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &models.PublishReport{Err: composite.Error, Results: composite.Results}, nil

	default:
		return nil, c.mapError(status, body)
	}
}

func (c *HTTPClient) ListPosts(ctx context.Context) ([]models.Post, error) {
	var list []models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetPost(ctx context.Context, uuid string) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+uuid, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) Feed(ctx context.Context) ([]models.Post, error) {
	var list []models.Post
	if err := c.do(ctx, http.MethodGet, "/feed", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) NewMediaUpload(ctx context.Context) (string, string, error) {
	var out struct {
		Key       string `json:"key"`
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/media/uploads", nil, &out); err != nil {
		return "", "", err
	}
	return out.Key, out.UploadURL, nil
}

// do sends one JSON request and fills out (if non-nil) from a 2xx body.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	body, status, err := c.doRaw(ctx, method, path, in)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return c.mapError(status, body)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doRaw sends the request with bearer auth. When the server rejects the
// access token as expired and a refresh token is on hand, it rotates the
// pair and retries once.
func (c *HTTPClient) doRaw(ctx context.Context, method, path string, in any) ([]byte, int, error) {
	body, status, err := c.send(ctx, method, path, in)
	if err != nil {
		return nil, 0, err
	}

	if status == http.StatusUnauthorized &&
		errorMessage(body) == common.ErrTokenExpired.Error() &&
		c.refreshToken != "" {

		if err := c.refresh(ctx); err != nil {
			return nil, 0, err
		}

		// TOKENS REFRESHED, retrying with the new access token.
		body, status, err = c.send(ctx, method, path, in)
		if err != nil {
			return nil, 0, err
		}
	}

	return body, status, nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, in any) ([]byte, int, error) {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set(common.AuthHeaderName, common.BearerPrefix+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func (c *HTTPClient) refresh(ctx context.Context) error {
	in := struct {
		RefreshToken string `json:"refresh_token"`
	}{c.refreshToken}

	body, status, err := c.send(ctx, http.MethodPost, "/api/auth/refresh", in)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return c.mapError(status, body)
	}

	var pair tokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.accessToken = pair.AccessToken
	c.refreshToken = pair.RefreshToken
	return nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &e)
	return e.Error
}

func (c *HTTPClient) mapError(status int, body []byte) error {
	msg := errorMessage(body)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			return ErrUnauthorized
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		if msg == "" {
			return ErrUnavailable
		}
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &apiError{Status: status, Message: msg}
}
