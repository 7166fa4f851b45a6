// Package rocketreach provides a client for the RocketReach API.
package rocketreach

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

const defaultBaseURL = "https://api.rocketreach.co"

// Client defines the RocketReach API operations.
type Client interface {
	// LookupProfile resolves a person's profile, including emails and phones.
	LookupProfile(ctx context.Context, req LookupRequest) (*Profile, error)
	// Account returns the account summary; used as a health probe.
	Account(ctx context.Context) (*AccountResponse, error)
}

// LookupRequest holds the query parameters for GET /v2/api/lookupProfile.
// Either Name+CurrentEmployer or LinkedInURL identifies the person.
type LookupRequest struct {
	Name            string
	CurrentEmployer string
	LinkedInURL     string
}

// Profile is a RocketReach person profile.
type Profile struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Status string  `json:"status"` // "complete", "searching", "failed"
	Emails []Email `json:"emails"`
	Phones []Phone `json:"phones"`
}

// Email is one address attached to a profile.
type Email struct {
	Email     string `json:"email"`
	Type      string `json:"type"` // "professional", "personal"
	SMTPValid string `json:"smtp_valid"`
}

// Phone is one number attached to a profile.
type Phone struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

// AccountResponse is the response from GET /v2/api/account.
type AccountResponse struct {
	ID             int    `json:"id"`
	Email          string `json:"email"`
	LookupCredits  int    `json:"lookup_credit_balance"`
	ExportsReserve int    `json:"export_credit_balance"`
}

// BestEmail returns the first professional SMTP-valid address, falling back
// to the first address of any kind.
func (p *Profile) BestEmail() *Email {
	for i := range p.Emails {
		e := &p.Emails[i]
		if e.Type == "professional" && e.SMTPValid == "valid" {
			return e
		}
	}
	if len(p.Emails) > 0 {
		return &p.Emails[0]
	}
	return nil
}

// APIError is returned when RocketReach responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rocketreach: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a RocketReach API client.
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

func (c *httpClient) LookupProfile(ctx context.Context, req LookupRequest) (*Profile, error) {
	params := url.Values{}
	if req.LinkedInURL != "" {
		params.Set("li_url", req.LinkedInURL)
	} else {
		params.Set("name", req.Name)
		params.Set("current_employer", req.CurrentEmployer)
	}

	var profile Profile
	if err := c.get(ctx, "/v2/api/lookupProfile", params, &profile); err != nil {
		return nil, eris.Wrap(err, "rocketreach: lookup profile")
	}
	return &profile, nil
}

func (c *httpClient) Account(ctx context.Context) (*AccountResponse, error) {
	var resp AccountResponse
	if err := c.get(ctx, "/v2/api/account", nil, &resp); err != nil {
		return nil, eris.Wrap(err, "rocketreach: account")
	}
	return &resp, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

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
