// Package zerobounce provides a client for the ZeroBounce email
// validation API.
package zerobounce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.zerobounce.net"

// Validation statuses returned by ZeroBounce.
const (
	StatusValid     = "valid"
	StatusInvalid   = "invalid"
	StatusCatchAll  = "catch-all"
	StatusUnknown   = "unknown"
	StatusDoNotMail = "do_not_mail"
	StatusSpamtrap  = "spamtrap"
	StatusAbuse     = "abuse"
)

// Client defines the ZeroBounce API operations.
type Client interface {
	// Validate checks a single email address for deliverability.
	Validate(ctx context.Context, email string) (*ValidateResponse, error)
	// Credits returns the remaining credit balance; used as a health probe.
	Credits(ctx context.Context) (int, error)
}

// ValidateResponse is the response from GET /v2/validate.
type ValidateResponse struct {
	Address   string `json:"address"`
	Status    string `json:"status"`
	SubStatus string `json:"sub_status"`
	FreeEmail bool   `json:"free_email"`
	Domain    string `json:"domain"`
	MXFound   string `json:"mx_found"` // "true" or "false"
	SMTPCheck string `json:"smtp_provider"`
}

// Deliverable reports whether mail sent to the address is expected to land.
// Catch-all domains accept everything, so they count as deliverable but the
// caller may want to weight them lower.
func (r *ValidateResponse) Deliverable() bool {
	return r.Status == StatusValid || r.Status == StatusCatchAll
}

type creditsResponse struct {
	Credits json.Number `json:"Credits"`
}

// APIError is returned when ZeroBounce responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zerobounce: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code for transient-error classification.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a ZeroBounce API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Validate(ctx context.Context, email string) (*ValidateResponse, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("email", email)

	var resp ValidateResponse
	if err := c.get(ctx, "/v2/validate", params, &resp); err != nil {
		return nil, eris.Wrap(err, "zerobounce: validate")
	}
	return &resp, nil
}

func (c *httpClient) Credits(ctx context.Context) (int, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)

	var resp creditsResponse
	if err := c.get(ctx, "/v2/getcredits", params, &resp); err != nil {
		return 0, eris.Wrap(err, "zerobounce: credits")
	}
	n, err := resp.Credits.Int64()
	if err != nil {
		return 0, eris.Wrap(err, "zerobounce: parse credits")
	}
	return int(n), nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
