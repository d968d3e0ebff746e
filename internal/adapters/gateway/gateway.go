// Package gateway is the HTTP client for the stackgnosis API. Every call
// issues one request; authenticated calls attach "Authorization: Token"
// and mutating calls add the anti-forgery header sourced from the cookie
// jar. Calls resolve in whatever order the server answers; callers must
// not assume completion order matches issue order.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

const (
	maxResponseBytes      = 1 << 20
	defaultRequestTimeout = 30 * time.Second
	csrfCookieName        = "csrftoken"
	csrfHeaderName        = "X-CSRFToken"
)

// TokenSource returns the current access token, or "" when logged out.
// The session service owns the credential; the gateway only reads it.
type TokenSource func() string

type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient substitutes the underlying http.Client. The client keeps
// its jar if it has one; otherwise a fresh cookie jar is installed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, token TokenSource, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("api base url host is required")
	}
	if token == nil {
		token = func() string { return "" }
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: defaultRequestTimeout}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}

	return c, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	if method != http.MethodGet {
		if csrf := c.csrfToken(); csrf != "" {
			req.Header.Set(csrfHeaderName, csrf)
		}
	}

	return req, nil
}

// do performs the request and reads the full body. Status handling is the
// caller's job; network failures and read failures come back wrapped.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("perform request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

func (c *Client) csrfToken() string {
	parsed, err := url.Parse(c.baseURL)
	if err != nil || c.http.Jar == nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(parsed) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

func statusOK(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// apiError mirrors the DRF error envelope: a detail string, field errors,
// or a non_field_errors list.
type apiError struct {
	Detail         string   `json:"detail"`
	NonFieldErrors []string `json:"non_field_errors"`
}

func errorFromResponse(status int, body []byte) error {
	message := extractErrorMessage(body)

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if message == "" {
			return fmt.Errorf("%w: status %d", domain.ErrUnauthorized, status)
		}
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, message)
	}
	if message == "" {
		return fmt.Errorf("status %d", status)
	}
	return fmt.Errorf("status %d: %s", status, message)
}

func extractErrorMessage(body []byte) string {
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Detail != "" {
			return envelope.Detail
		}
		if len(envelope.NonFieldErrors) > 0 {
			return envelope.NonFieldErrors[0]
		}
	}
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}

// unwrapStringBody handles endpoints that respond with a JSON-encoded
// string wrapping the real payload, and returns the inner bytes.
func unwrapStringBody(body []byte) []byte {
	var inner string
	if err := json.Unmarshal(body, &inner); err == nil {
		return []byte(inner)
	}
	return body
}
