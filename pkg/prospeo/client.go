// Package prospeo provides a client for the Prospeo email finder API.
package prospeo

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

const defaultBaseURL = "https://api.prospeo.io"

// Client defines the Prospeo API operations.
type Client interface {
	// FindEmail looks up a person's email by name and company.
	FindEmail(ctx context.Context, req FindEmailRequest) (*FindEmailResponse, error)
	// Account returns remaining credits; used as a health probe.
	Account(ctx context.Context) (*AccountResponse, error)
}

// FindEmailRequest is the body for POST /email-finder. Company accepts a
// domain or a company name.
type FindEmailRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
}

// FindEmailResponse is the response from POST /email-finder.
type FindEmailResponse struct {
	Error    bool          `json:"error"`
	Response EmailResponse `json:"response"`
}

// EmailResponse holds the found contact.
type EmailResponse struct {
	Email       string `json:"email"`
	EmailStatus string `json:"email_status"` // "VALID", "ACCEPT_ALL", "UNKNOWN"
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Domain      string `json:"domain"`
}

// AccountResponse is the response from POST /account-information.
type AccountResponse struct {
	Error    bool        `json:"error"`
	Response AccountData `json:"response"`
}

// AccountData holds credit usage.
type AccountData struct {
	RemainingCredits int `json:"remaining_credits"`
}

// APIError is returned when Prospeo responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prospeo: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a Prospeo API client.
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

func (c *httpClient) FindEmail(ctx context.Context, req FindEmailRequest) (*FindEmailResponse, error) {
	var resp FindEmailResponse
	if err := c.post(ctx, "/email-finder", req, &resp); err != nil {
		return nil, eris.Wrap(err, "prospeo: find email")
	}
	return &resp, nil
}

func (c *httpClient) Account(ctx context.Context) (*AccountResponse, error) {
	var resp AccountResponse
	if err := c.post(ctx, "/account-information", struct{}{}, &resp); err != nil {
		return nil, eris.Wrap(err, "prospeo: account information")
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-KEY", c.apiKey)

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
