package dropcontact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrich(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/enrich/all", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Access-Token"))

		var req EnrichRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Data, 1)
		assert.Equal(t, "acme.com", req.Data[0].Website)

		_, _ = w.Write([]byte(`{"request_id": "req-42", "success": true}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Enrich(context.Background(), EnrichRequest{
		Data: []ContactInput{{FirstName: "John", LastName: "Smith", Website: "acme.com"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.RequestID)
}

func TestPollEnrichWaitsForCompletion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/enrich/all/req-42", r.URL.Path)
		if calls.Add(1) < 3 {
			_, _ = w.Write([]byte(`{"success": false, "reason": "not ready yet"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "data": [
			{"first_name": "John", "email": [{"email": "john@acme.com", "qualification": "correct"}]}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	result, err := PollEnrich(context.Background(), client, "req-42",
		WithPollInterval(time.Millisecond), WithPollTimeout(5*time.Second))
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "john@acme.com", result.Data[0].Email[0].Email)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestPollEnrichPermanentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "reason": "invalid request"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := PollEnrich(context.Background(), client, "req-9", WithPollInterval(time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
}

func TestCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/credits", r.URL.Path)
		_, _ = w.Write([]byte(`{"credits": 980, "success": true}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Credits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 980, resp.Credits)
}
