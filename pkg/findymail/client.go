// Package findymail provides a client for the Findymail API. Findymail only
// returns addresses it has already verified.
package findymail

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

const defaultBaseURL = "https://app.findymail.com"

// Client defines the Findymail API operations.
type Client interface {
	// FindByName looks up a person's email by full name and domain.
	FindByName(ctx context.Context, req FindByNameRequest) (*FindResponse, error)
	// FindByLinkedIn looks up a person's email from a LinkedIn profile URL.
	FindByLinkedIn(ctx context.Context, linkedinURL string) (*FindResponse, error)
	// Credits returns the remaining credit balance; used as a health probe.
	Credits(ctx context.Context) (*CreditsResponse, error)
}

// FindByNameRequest is the body for POST /api/search/name.
type FindByNameRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// FindResponse is the response from the search endpoints.
type FindResponse struct {
	Contact Contact `json:"contact"`
}

// Contact is the found person. Email is empty when nothing verified was found.
type Contact struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Domain string `json:"domain"`
}

// CreditsResponse is the response from GET /api/credits.
type CreditsResponse struct {
	Credits         int `json:"credits"`
	VerifierCredits int `json:"verifier_credits"`
}

// APIError is returned when Findymail responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("findymail: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a Findymail API client.
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

func (c *httpClient) FindByName(ctx context.Context, req FindByNameRequest) (*FindResponse, error) {
	var resp FindResponse
	if err := c.do(ctx, http.MethodPost, "/api/search/name", req, &resp); err != nil {
		return nil, eris.Wrap(err, "findymail: find by name")
	}
	return &resp, nil
}

func (c *httpClient) FindByLinkedIn(ctx context.Context, linkedinURL string) (*FindResponse, error) {
	body := map[string]string{"linkedin_url": linkedinURL}
	var resp FindResponse
	if err := c.do(ctx, http.MethodPost, "/api/search/linkedin", body, &resp); err != nil {
		return nil, eris.Wrap(err, "findymail: find by linkedin")
	}
	return &resp, nil
}

func (c *httpClient) Credits(ctx context.Context) (*CreditsResponse, error) {
	var resp CreditsResponse
	if err := c.do(ctx, http.MethodGet, "/api/credits", nil, &resp); err != nil {
		return nil, eris.Wrap(err, "findymail: credits")
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
