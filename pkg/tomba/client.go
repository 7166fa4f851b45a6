// Package tomba provides a client for the Tomba email finder API. Tomba
// authenticates with a key/secret pair sent as request headers; both are
// required.
package tomba

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

const defaultBaseURL = "https://api.tomba.io/v1"

// Client defines the Tomba API operations.
type Client interface {
	// FindEmail looks up a person's email by name and domain.
	FindEmail(ctx context.Context, req FindEmailRequest) (*FindEmailResponse, error)
	// Account returns account information; used as a health probe.
	Account(ctx context.Context) (*AccountResponse, error)
}

// FindEmailRequest holds the email-finder parameters.
type FindEmailRequest struct {
	Domain    string
	FirstName string
	LastName  string
}

// FindEmailResponse is the response from GET /email-finder.
type FindEmailResponse struct {
	Data FindEmailData `json:"data"`
}

// FindEmailData holds the found contact.
type FindEmailData struct {
	Email     string `json:"email"`
	Score     int    `json:"score"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone_number"`
}

// AccountResponse is the response from GET /me.
type AccountResponse struct {
	Data AccountData `json:"data"`
}

// AccountData holds account identity.
type AccountData struct {
	Email string `json:"email"`
}

// APIError is returned when Tomba responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tomba: HTTP %d: %s", e.StatusCode, e.Body)
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
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
}

// NewClient creates a Tomba API client.
func NewClient(apiKey, apiSecret string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   defaultBaseURL,
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

func (c *httpClient) FindEmail(ctx context.Context, req FindEmailRequest) (*FindEmailResponse, error) {
	q := url.Values{}
	q.Set("domain", req.Domain)
	q.Set("first_name", req.FirstName)
	q.Set("last_name", req.LastName)

	var resp FindEmailResponse
	if err := c.get(ctx, "/email-finder?"+q.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "tomba: find email")
	}
	return &resp, nil
}

func (c *httpClient) Account(ctx context.Context) (*AccountResponse, error) {
	var resp AccountResponse
	if err := c.get(ctx, "/me", &resp); err != nil {
		return nil, eris.Wrap(err, "tomba: account")
	}
	return &resp, nil
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("X-Tomba-Key", c.apiKey)
	req.Header.Set("X-Tomba-Secret", c.apiSecret)

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
