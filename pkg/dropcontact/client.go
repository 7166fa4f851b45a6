// Package dropcontact provides a client for the Dropcontact enrichment API.
// Dropcontact is asynchronous: an enrichment is submitted, then polled until
// the batch finishes processing.
package dropcontact

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

const defaultBaseURL = "https://api.dropcontact.io"

// Client defines the Dropcontact API operations.
type Client interface {
	// Enrich submits contacts for enrichment and returns a request id.
	Enrich(ctx context.Context, req EnrichRequest) (*EnrichResponse, error)
	// GetEnrichResult fetches the state of a previously submitted request.
	GetEnrichResult(ctx context.Context, requestID string) (*EnrichResult, error)
	// Credits returns the remaining credit balance; used as a health probe.
	Credits(ctx context.Context) (*CreditsResponse, error)
}

// ContactInput is one contact to enrich.
type ContactInput struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Website   string `json:"website,omitempty"`
	Company   string `json:"company,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// EnrichRequest is the body for POST /v1/enrich/all.
type EnrichRequest struct {
	Data  []ContactInput `json:"data"`
	Siren bool           `json:"siren"`
}

// EnrichResponse acknowledges a submitted enrichment.
type EnrichResponse struct {
	RequestID string `json:"request_id"`
	Success   bool   `json:"success"`
}

// EnrichResult is the state of an enrichment request. Success is false with
// Reason "not ready" while the batch is still processing.
type EnrichResult struct {
	Success bool            `json:"success"`
	Reason  string          `json:"reason,omitempty"`
	Data    []ContactOutput `json:"data,omitempty"`
}

// ContactOutput is one enriched contact.
type ContactOutput struct {
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	Email     []Email `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
}

// Email is a found address with Dropcontact's qualification.
type Email struct {
	Email         string `json:"email"`
	Qualification string `json:"qualification"` // "correct", "professional", "risky", ...
}

// CreditsResponse is the response from GET /v1/credits.
type CreditsResponse struct {
	Credits int  `json:"credits"`
	Success bool `json:"success"`
}

// APIError is returned when Dropcontact responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dropcontact: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a Dropcontact API client.
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

func (c *httpClient) Enrich(ctx context.Context, req EnrichRequest) (*EnrichResponse, error) {
	var resp EnrichResponse
	if err := c.do(ctx, http.MethodPost, "/v1/enrich/all", req, &resp); err != nil {
		return nil, eris.Wrap(err, "dropcontact: submit enrich")
	}
	return &resp, nil
}

func (c *httpClient) GetEnrichResult(ctx context.Context, requestID string) (*EnrichResult, error) {
	var resp EnrichResult
	if err := c.do(ctx, http.MethodGet, "/v1/enrich/all/"+requestID, nil, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("dropcontact: get enrich result %s", requestID))
	}
	return &resp, nil
}

func (c *httpClient) Credits(ctx context.Context) (*CreditsResponse, error) {
	var resp CreditsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/credits", nil, &resp); err != nil {
		return nil, eris.Wrap(err, "dropcontact: credits")
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
	req.Header.Set("X-Access-Token", c.apiKey)

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
