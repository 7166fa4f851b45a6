// Package anymailfinder provides a client for the Anymail Finder API.
package anymailfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.anymailfinder.com"

// Client defines the Anymail Finder API operations.
type Client interface {
	// FindPerson looks up a person's email by name and company domain.
	FindPerson(ctx context.Context, req FindPersonRequest) (*FindPersonResponse, error)
	// Account returns account information; used as a health probe.
	Account(ctx context.Context) (*AccountResponse, error)
}

// FindPersonRequest is the body for POST /v5.0/search/person.json. Domain or
// CompanyName is required alongside the name.
type FindPersonRequest struct {
	Domain      string `json:"domain,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

// FindPersonResponse is the response from the person search.
type FindPersonResponse struct {
	Success bool       `json:"success"`
	Results FindResult `json:"results"`
}

// FindResult holds the found address and its validation class.
type FindResult struct {
	Email      string `json:"email"`
	Validation string `json:"validation"` // "valid", "risky"
}

// AccountResponse is the response from GET /v5.0/meta/account.json.
type AccountResponse struct {
	Success     bool `json:"success"`
	CreditsLeft int  `json:"credits_left"`
}

// APIError is returned when Anymail Finder responds with a non-2xx status.
// A 404 means no email was found and is handled by the adapter, not treated
// as a provider outage.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anymailfinder: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates an Anymail Finder API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
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

func (c *httpClient) FindPerson(ctx context.Context, req FindPersonRequest) (*FindPersonResponse, error) {
	var resp FindPersonResponse
	if err := c.do(ctx, http.MethodPost, "/v5.0/search/person.json", req, &resp); err != nil {
		return nil, eris.Wrap(err, "anymailfinder: find person")
	}
	return &resp, nil
}

func (c *httpClient) Account(ctx context.Context) (*AccountResponse, error) {
	var resp AccountResponse
	if err := c.do(ctx, http.MethodGet, "/v5.0/meta/account.json", nil, &resp); err != nil {
		return nil, eris.Wrap(err, "anymailfinder: account")
	}
	return &resp, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
