package zion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

var (
	// ErrNetwork marks transport failures: the server was never reached or the response was lost
	ErrNetwork = errors.New("network error")
	// ErrUnauthorized matches any API error with status 401
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotAuthenticated is returned locally when an authenticated call has no token
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError is a non-2xx response from the backend
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Message converts an error into the text shown to the user.
// Server errors surface their detail, transport errors a generic message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	if errors.Is(err, ErrNetwork) {
		return ErrNetwork.Error()
	}
	return err.Error()
}

// Credentials is the session context authenticated calls run under
type Credentials interface {
	Token() string
	// Invalidate is called after the backend rejects the token with 401
	Invalidate()
}

// Client is a ZION.CITY REST API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new API client for the backend at baseURL
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCredentials returns a copy of the client whose authenticated calls use creds
func (c *Client) WithCredentials(creds Credentials) *Client {
	cp := *c
	cp.creds = creds
	return &cp
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// newRequest builds a request with a JSON body (if in is non-nil)
func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// send performs req with an optional bearer token and decodes a JSON response into out
func (c *Client) send(req *http.Request, token string, out any) error {
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := parseDetail(body)
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Detail: detail}
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// do performs an unauthenticated JSON request, or one with an explicit token
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	return c.send(req, token, out)
}

// doAuth performs a JSON request under the bound credentials
func (c *Client) doAuth(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	return c.sendAuth(req, out)
}

func (c *Client) sendAuth(req *http.Request, out any) error {
	if c.creds == nil {
		return ErrNotAuthenticated
	}
	token := c.creds.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	err := c.send(req, token, out)
	if errors.Is(err, ErrUnauthorized) {
		c.creds.Invalidate()
	}
	return err
}

// parseDetail extracts the server's error detail. The backend sends either
// {"detail": "text"} or a validation list {"detail": [{"msg": "..."}]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Detail) == 0 {
		return envelope.Message
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return string(envelope.Detail)
}
