//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/waterfall"
	"github.com/sells-group/prospect-cli/internal/waterfall/provider"
)

// stubProvider answers every lookup with a fixed result.
type stubProvider struct {
	email     string
	healthErr error
}

func (s *stubProvider) Name() model.Source { return model.SourceHunter }
func (s *stubProvider) UnitCost() float64  { return 0.012 }

func (s *stubProvider) FindEmail(_ context.Context, _ model.LookupRequest) (*provider.Result, error) {
	if s.email == "" {
		return nil, nil
	}
	return &provider.Result{Email: s.email, Confidence: 0.9, Verified: true}, nil
}

func (s *stubProvider) HealthCheck(_ context.Context) error { return s.healthErr }

func newTestMux(t *testing.T, p provider.Provider) *http.ServeMux {
	t.Helper()
	engine := waterfall.New(waterfall.Options{
		Providers: []provider.Provider{p},
	})
	return buildMux(engine)
}

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := newTestMux(t, &stubProvider{email: "a@b.com"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var report model.HealthReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.True(t, report.Healthy)
	assert.True(t, report.Services["hunter"].Healthy)
}

func TestBuildMux_HealthEndpoint_Unhealthy(t *testing.T) {
	mux := newTestMux(t, &stubProvider{healthErr: eris.New("key revoked")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var report model.HealthReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.False(t, report.Healthy)
	assert.Contains(t, report.Services["hunter"].Error, "key revoked")
}

func TestBuildMux_WebhookFind(t *testing.T) {
	mux := newTestMux(t, &stubProvider{email: "jane@acme.com"})

	body, _ := json.Marshal(model.LookupRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Domain:    "acme.com",
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook/find", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var result model.EnrichmentResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "jane@acme.com", result.Email)
	assert.Equal(t, model.SourceHunter, result.Source)
	assert.True(t, result.Verified)
}

func TestBuildMux_WebhookFind_MissingField(t *testing.T) {
	mux := newTestMux(t, &stubProvider{email: "jane@acme.com"})

	req := httptest.NewRequest(http.MethodPost, "/webhook/find",
		bytes.NewReader([]byte(`{"first_name":"Jane","domain":"acme.com"}`)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "last_name")
}

func TestBuildMux_WebhookFind_InvalidJSON(t *testing.T) {
	mux := newTestMux(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/webhook/find", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestBuildMux_WebhookFind_NotFound(t *testing.T) {
	mux := newTestMux(t, &stubProvider{})

	body, _ := json.Marshal(model.LookupRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Domain:    "acme.com",
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook/find", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var result model.EnrichmentResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, model.SourceNotFound, result.Source)
	assert.Empty(t, result.Email)
}

func TestBuildMux_StatsEndpoint(t *testing.T) {
	engine := waterfall.New(waterfall.Options{
		Providers: []provider.Provider{&stubProvider{email: "jane@acme.com"}},
	})
	mux := buildMux(engine)

	_, err := engine.FindEmail(context.Background(), model.LookupRequest{
		FirstName: "Jane", LastName: "Doe", Domain: "acme.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var stats model.WaterfallStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalRequests)
	assert.Equal(t, 1, stats.TotalFound)
	assert.InDelta(t, 0.012, stats.TotalCost, 1e-9)
}

func TestBuildMux_CacheClear(t *testing.T) {
	mux := newTestMux(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/cache/clear", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cleared")
}
