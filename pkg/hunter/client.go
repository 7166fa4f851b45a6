// Package hunter provides a client for the Hunter.io Email Finder API.
package hunter

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

const defaultBaseURL = "https://api.hunter.io/v2"

// Client defines the Hunter API operations.
type Client interface {
	// FindEmail looks up a person's most likely email address by name and
	// company domain.
	FindEmail(ctx context.Context, req FindEmailRequest) (*FindEmailResponse, error)
	// Account returns account information; used as a health probe.
	Account(ctx context.Context) (*AccountResponse, error)
}

// FindEmailRequest holds the email-finder parameters. Domain or Company is
// required alongside the name.
type FindEmailRequest struct {
	Domain    string
	Company   string
	FirstName string
	LastName  string
}

// FindEmailResponse is the response from GET /email-finder.
type FindEmailResponse struct {
	Data FindEmailData `json:"data"`
}

// FindEmailData holds the found contact.
type FindEmailData struct {
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Email        string       `json:"email"`
	Score        int          `json:"score"`
	Domain       string       `json:"domain"`
	PhoneNumber  string       `json:"phone_number"`
	Verification Verification `json:"verification"`
}

// Verification is Hunter's own deliverability judgment on the found address.
type Verification struct {
	Date   string `json:"date"`
	Status string `json:"status"` // "valid", "accept_all", "unknown", ...
}

// AccountResponse is the response from GET /account.
type AccountResponse struct {
	Data AccountData `json:"data"`
}

// AccountData holds account plan and usage.
type AccountData struct {
	Email    string `json:"email"`
	PlanName string `json:"plan_name"`
}

// APIError is returned when Hunter responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hunter: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a Hunter API client.
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
	q := url.Values{}
	q.Set("first_name", req.FirstName)
	q.Set("last_name", req.LastName)
	if req.Domain != "" {
		q.Set("domain", req.Domain)
	}
	if req.Company != "" {
		q.Set("company", req.Company)
	}

	var resp FindEmailResponse
	if err := c.get(ctx, "/email-finder", q, &resp); err != nil {
		return nil, eris.Wrap(err, "hunter: find email")
	}
	return &resp, nil
}

func (c *httpClient) Account(ctx context.Context) (*AccountResponse, error) {
	var resp AccountResponse
	if err := c.get(ctx, "/account", url.Values{}, &resp); err != nil {
		return nil, eris.Wrap(err, "hunter: account")
	}
	return &resp, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
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
