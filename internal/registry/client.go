package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrQuotaExceeded signals that the upstream registry rejected the
	// lookup because the request quota is exhausted. Callers must never
	// treat this as "company not found".
	ErrQuotaExceeded = errors.New("registry quota exceeded")

	// ErrUpstream covers every other upstream failure.
	ErrUpstream = errors.New("registry upstream failure")
)

// Lookup resolves an 8-digit CVR to a normalized company record.
type Lookup interface {
	LookupCVR(ctx context.Context, cvr string) (*Company, error)
}

// Client queries the third-party company registry over HTTP.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewClient builds a registry client. The user agent identifies the
// integration towards the registry operator and must carry a contact
// address.
func NewClient(client *http.Client, baseURL, userAgent string) *Client {
	if baseURL == "" {
		panic("registry baseURL must not be empty")
	}
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &Client{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// LookupCVR fetches and normalizes a single registry record.
func (c *Client) LookupCVR(ctx context.Context, cvr string) (*Company, error) {
	endpoint := fmt.Sprintf("%s/api?search=%s&country=dk", c.baseURL, url.QueryEscape(cvr))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrQuotaExceeded
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var record upstreamRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	return record.normalize(), nil
}

var _ Lookup = (*Client)(nil)
