// Package snov provides a client for the Snov.io API. Snov uses OAuth
// client-credentials auth: both a client id and a client secret are required.
package snov

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.snov.io"

// Client defines the Snov API operations.
type Client interface {
	// FindEmail looks up a person's email by name and domain.
	FindEmail(ctx context.Context, req FindEmailRequest) (*FindEmailResponse, error)
	// Balance returns the remaining credit balance; used as a health probe.
	Balance(ctx context.Context) (*BalanceResponse, error)
}

// FindEmailRequest is the body for POST /v1/get-emails-from-names.
type FindEmailRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Domain    string `json:"domain"`
}

// FindEmailResponse is the response from POST /v1/get-emails-from-names.
type FindEmailResponse struct {
	Success bool          `json:"success"`
	Data    FindEmailData `json:"data"`
}

// FindEmailData holds found addresses.
type FindEmailData struct {
	Emails []Email `json:"emails"`
}

// Email is a found address with Snov's status judgment.
type Email struct {
	Email       string `json:"email"`
	EmailStatus string `json:"emailStatus"` // "valid", "unknown", "not_valid"
}

// BalanceResponse is the response from GET /v1/get-balance.
type BalanceResponse struct {
	Success bool   `json:"success"`
	Balance string `json:"data,omitempty"`
}

// UnmarshalJSON tolerates both {"data":{"balance":"x"}} and {"balance":"x"}.
func (b *BalanceResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success bool `json:"success"`
		Data    struct {
			Balance string `json:"balance"`
		} `json:"data"`
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Success = raw.Success
	b.Balance = raw.Data.Balance
	if b.Balance == "" {
		b.Balance = raw.Balance
	}
	return nil
}

// APIError is returned when Snov responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("snov: HTTP %d: %s", e.StatusCode, e.Body)
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
	clientID     string
	clientSecret string
	baseURL      string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Snov API client. Tokens are fetched lazily and cached
// until shortly before expiry.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
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
	if err := c.do(ctx, http.MethodPost, "/v1/get-emails-from-names", req, &resp); err != nil {
		return nil, eris.Wrap(err, "snov: find email")
	}
	return &resp, nil
}

func (c *httpClient) Balance(ctx context.Context) (*BalanceResponse, error) {
	var resp BalanceResponse
	if err := c.do(ctx, http.MethodGet, "/v1/get-balance", nil, &resp); err != nil {
		return nil, eris.Wrap(err, "snov: balance")
	}
	return &resp, nil
}

// token returns a cached access token, refreshing via the client-credentials
// grant when missing or near expiry.
func (c *httpClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	body, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	if err != nil {
		return "", eris.Wrap(err, "snov: marshal token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth/access_token", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "snov: create token request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "snov: request token")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "snov: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", eris.Wrap(err, "snov: decode token response")
	}

	c.accessToken = tok.AccessToken
	// Refresh one minute early to avoid racing expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

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
	req.Header.Set("Authorization", "Bearer "+token)

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
