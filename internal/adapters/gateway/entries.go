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

type entryPayload struct {
	Identifier  string `json:"identifier"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DateCreated string `json:"date_created"`
	DateUpdated string `json:"date_updated"`
	Related     []struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
	} `json:"related"`
}

func (p entryPayload) toDomain() domain.Entry {
	entry := domain.Entry{
		Identifier:  p.Identifier,
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		DateCreated: p.DateCreated,
		DateUpdated: p.DateUpdated,
	}
	for _, r := range p.Related {
		entry.Related = append(entry.Related, domain.EntryRef{Slug: r.Slug, Title: r.Title})
	}
	return entry
}

// Entries lists all entries, optionally filtered by a query string.
func (c *Client) Entries(ctx context.Context, query string) ([]domain.Entry, error) {
	path := "/api/entries/"
	if trimmed := strings.TrimSpace(query); trimmed != "" {
		path += "?q=" + url.QueryEscape(trimmed)
	}
	return c.entryList(ctx, path, "fetch entries")
}

// Search runs the dedicated search endpoint.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Entry, error) {
	path := "/api/entries/search/?q=" + url.QueryEscape(query)
	return c.entryList(ctx, path, "search entries")
}

func (c *Client) entryList(ctx context.Context, path, verb string) ([]domain.Entry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", verb, err)
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("%s: %w", verb, errorFromResponse(status, body))
	}

	// List bodies are sometimes JSON-encoded strings wrapping the array.
	var payload []entryPayload
	if err := json.Unmarshal(unwrapStringBody(body), &payload); err != nil {
		return nil, fmt.Errorf("%s: %w", verb, domain.ErrMalformedPayload)
	}

	entries := make([]domain.Entry, 0, len(payload))
	for _, p := range payload {
		entries = append(entries, p.toDomain())
	}

	return entries, nil
}

// Entry fetches one entry by slug. A 404 maps to domain.ErrEntryNotFound;
// an incomplete record maps to domain.ErrMalformedPayload. Some server
// versions wrap the entry in a paginated {results: [...]} envelope.
func (c *Client) Entry(ctx context.Context, slug string) (domain.Entry, error) {
	path := fmt.Sprintf("/api/entries/%s/", url.PathEscape(slug))

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.Entry{}, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("fetch entry: %w", err)
	}
	if status == http.StatusNotFound {
		return domain.Entry{}, fmt.Errorf("fetch entry %q: %w", slug, domain.ErrEntryNotFound)
	}
	if !statusOK(status) {
		return domain.Entry{}, fmt.Errorf("fetch entry: %w", errorFromResponse(status, body))
	}

	payload, err := decodeEntryBody(body)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("fetch entry %q: %w", slug, err)
	}

	entry := payload.toDomain()
	if !entry.Complete() {
		return domain.Entry{}, fmt.Errorf("fetch entry %q: %w", slug, domain.ErrMalformedPayload)
	}

	return entry, nil
}

func decodeEntryBody(body []byte) (entryPayload, error) {
	var envelope struct {
		Results []entryPayload `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Results) > 0 {
		return envelope.Results[0], nil
	}

	var payload entryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return entryPayload{}, domain.ErrMalformedPayload
	}
	return payload, nil
}

// CreateEntryRequest carries the creatable entry fields.
type CreateEntryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (c *Client) Create(ctx context.Context, req CreateEntryRequest) (domain.Entry, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/entries/create/", req)
	if err != nil {
		return domain.Entry{}, err
	}

	status, body, err := c.do(httpReq)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	if !statusOK(status) {
		return domain.Entry{}, fmt.Errorf("create entry: %w", errorFromResponse(status, body))
	}

	var payload entryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// Creation succeeded even when the echo body is not an entry.
		return domain.Entry{}, nil
	}

	return payload.toDomain(), nil
}

func (c *Client) Delete(ctx context.Context, slug string) error {
	path := fmt.Sprintf("/api/entries/%s/", url.PathEscape(slug))

	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}

	status, body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("delete entry %q: %w", slug, domain.ErrEntryNotFound)
	}
	if !statusOK(status) {
		return fmt.Errorf("delete entry: %w", errorFromResponse(status, body))
	}

	return nil
}

// RequestNew asks the server to generate a new entry for the query. The
// answer arrives later as a push notification, not in this response.
func (c *Client) RequestNew(ctx context.Context, query string) error {
	payload := map[string]string{"query": query}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/entries/request-new/", payload)
	if err != nil {
		return err
	}

	status, body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("request new entry: %w", err)
	}
	if !statusOK(status) {
		return fmt.Errorf("request new entry: %w", errorFromResponse(status, body))
	}

	return nil
}
