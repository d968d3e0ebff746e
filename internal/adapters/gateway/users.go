package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

// RegisterRequest carries the registration form fields. Password2 must
// match Password; the server enforces it, we just pass both through.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/users/register/", req)
	if err != nil {
		return err
	}

	status, body, err := c.do(httpReq)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if !statusOK(status) {
		return fmt.Errorf("register: %w", errorFromResponse(status, body))
	}

	return nil
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Slug  string `json:"slug"`
}

// Login exchanges email and password for a credential. No auth header is
// attached; the call itself establishes the session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Credential, error) {
	payload := map[string]string{"email": email, "password": password}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/users/login/", payload)
	if err != nil {
		return domain.Credential{}, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("login: %w", err)
	}
	if !statusOK(status) {
		return domain.Credential{}, fmt.Errorf("login: %w", errorFromResponse(status, body))
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Credential{}, fmt.Errorf("login: decode response: %w", domain.ErrMalformedPayload)
	}
	if strings.TrimSpace(resp.Token) == "" {
		return domain.Credential{}, fmt.Errorf("login: response missing token: %w", domain.ErrMalformedPayload)
	}

	return domain.Credential{Token: resp.Token, Email: resp.Email, Slug: resp.Slug}, nil
}

// User is the identity record returned by the me endpoint.
type User struct {
	Email     string `json:"email"`
	Slug      string `json:"slug"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (c *Client) Me(ctx context.Context) (User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/me/", nil)
	if err != nil {
		return User{}, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return User{}, fmt.Errorf("fetch current user: %w", err)
	}
	if !statusOK(status) {
		return User{}, fmt.Errorf("fetch current user: %w", errorFromResponse(status, body))
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return User{}, fmt.Errorf("fetch current user: %w", domain.ErrMalformedPayload)
	}

	return user, nil
}

type bookmarkPayload struct {
	Entry string `json:"entry"`
	Slug  string `json:"slug"`
}

// Bookmarks lists the user's saved entries. The endpoint wraps its array
// in a JSON-encoded string, so the body is decoded twice.
func (c *Client) Bookmarks(ctx context.Context, slug string) ([]domain.Bookmark, error) {
	path := fmt.Sprintf("/api/users/%s/bookmarks/", url.PathEscape(slug))

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bookmarks: %w", err)
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("fetch bookmarks: %w", errorFromResponse(status, body))
	}

	var payload []bookmarkPayload
	if err := json.Unmarshal(unwrapStringBody(body), &payload); err != nil {
		return nil, fmt.Errorf("fetch bookmarks: %w", domain.ErrMalformedPayload)
	}

	bookmarks := make([]domain.Bookmark, 0, len(payload))
	for _, b := range payload {
		bookmarks = append(bookmarks, domain.Bookmark{Entry: b.Entry, Slug: b.Slug})
	}

	return bookmarks, nil
}

// Notify asks the server to push a test notification to the given user's
// channel.
func (c *Client) Notify(ctx context.Context, slug, message string) error {
	path := fmt.Sprintf("/api/notify/%s/", url.PathEscape(slug))

	var payload any
	if message != "" {
		payload = map[string]string{"message": message}
	} else {
		payload = map[string]string{}
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}

	status, body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	if !statusOK(status) {
		return fmt.Errorf("send notification: %w", errorFromResponse(status, body))
	}

	return nil
}
