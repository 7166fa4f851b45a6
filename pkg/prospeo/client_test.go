package prospeo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindEmail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		wantEmail  string
		wantStatus string
	}{
		{
			name:   "valid hit",
			status: http.StatusOK,
			body: `{"error": false, "response": {"email": "john@acme.com",
				"email_status": "VALID", "first_name": "John", "domain": "acme.com"}}`,
			wantEmail:  "john@acme.com",
			wantStatus: "VALID",
		},
		{
			name:    "payment required",
			status:  http.StatusPaymentRequired,
			body:    `{"error": true, "message": "NO_CREDITS"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/email-finder", r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("X-KEY"))

				var req FindEmailRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "acme.com", req.Company)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			resp, err := client.FindEmail(context.Background(), FindEmailRequest{
				FirstName: "John", LastName: "Smith", Company: "acme.com",
			})

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, resp.Response.Email)
			assert.Equal(t, tt.wantStatus, resp.Response.EmailStatus)
		})
	}
}

func TestAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/account-information", r.URL.Path)
		_, _ = w.Write([]byte(`{"error": false, "response": {"remaining_credits": 430}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 430, resp.Response.RemainingCredits)
}
