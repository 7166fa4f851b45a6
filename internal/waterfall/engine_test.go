package waterfall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/cache"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/waterfall/provider"
)

type mockProvider struct {
	name      model.Source
	cost      float64
	result    *provider.Result
	err       error
	healthErr error
	calls     int
}

func (m *mockProvider) Name() model.Source { return m.name }

func (m *mockProvider) UnitCost() float64 { return m.cost }

func (m *mockProvider) FindEmail(context.Context, model.LookupRequest) (*provider.Result, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockProvider) HealthCheck(context.Context) error { return m.healthErr }

type mockVerifier struct {
	verification *provider.Verification
	err          error
	calls        int
}

func (m *mockVerifier) Verify(context.Context, string) (*provider.Verification, error) {
	m.calls++
	return m.verification, m.err
}

func (m *mockVerifier) UnitCost() float64 { return 0.004 }

func (m *mockVerifier) HealthCheck(context.Context) error { return nil }

func found(email string) *provider.Result {
	return &provider.Result{Email: email, Confidence: 0.9, Verified: true}
}

func newTestEngine(opts Options) *Engine {
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Hour
	}
	return New(opts)
}

var engineReq = model.LookupRequest{FirstName: "Jane", LastName: "Doe", Domain: "example.com"}

func TestFindEmailValidation(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012, result: found("jane@example.com")}
	engine := newTestEngine(Options{Providers: []provider.Provider{first}})

	tests := []struct {
		name      string
		req       model.LookupRequest
		wantField string
	}{
		{"missing first name", model.LookupRequest{LastName: "Doe", Domain: "x.com"}, "first_name"},
		{"missing last name", model.LookupRequest{FirstName: "Jane", Domain: "x.com"}, "last_name"},
		{"missing domain and company", model.LookupRequest{FirstName: "Jane", LastName: "Doe"}, "domain or company"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.FindEmail(context.Background(), tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}

	// Precondition failures touch no provider and no counters.
	assert.Equal(t, 0, first.calls)
	stats := engine.Stats()
	assert.Equal(t, 0, stats.TotalRequests)
	assert.Equal(t, 0, stats.Services["hunter"].Requests)
}

func TestFindEmailFirstProviderWins(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012, result: found("jane@example.com")}
	second := &mockProvider{name: model.SourceSnov, cost: 0.010, result: found("other@example.com")}
	engine := newTestEngine(Options{Providers: []provider.Provider{first, second}})

	result, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", result.Email)
	assert.Equal(t, model.SourceHunter, result.Source)
	assert.True(t, result.Found())
	assert.Equal(t, []model.Source{model.SourceHunter}, result.ServicesTried)
	assert.InDelta(t, 0.012, result.TotalCost, 1e-9)
	assert.Equal(t, 0, second.calls)
}

func TestFindEmailCascadesPastFailure(t *testing.T) {
	t.Parallel()

	first := &mockProvider{
		name: model.SourceHunter,
		cost: 0.012,
		err:  provider.NewError(model.SourceHunter, errors.New("rate limited")),
	}
	second := &mockProvider{name: model.SourceSnov, cost: 0.010, result: found("jane@example.com")}
	engine := newTestEngine(Options{Providers: []provider.Provider{first, second}})

	result, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, model.SourceSnov, result.Source)
	assert.Equal(t, []model.Source{model.SourceHunter, model.SourceSnov}, result.ServicesTried)
	assert.InDelta(t, 0.022, result.TotalCost, 1e-9)
	assert.Contains(t, result.RawResponses["hunter"], "rate limited")

	stats := engine.Stats()
	assert.Equal(t, 1, stats.Services["hunter"].Failures)
	assert.Equal(t, 1, stats.Services["snov"].Successes)
}

func TestFindEmailUnexpectedErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("nil pointer in adapter")
	first := &mockProvider{name: model.SourceHunter, cost: 0.012, err: boom}
	second := &mockProvider{name: model.SourceSnov, cost: 0.010, result: found("jane@example.com")}
	engine := newTestEngine(Options{Providers: []provider.Provider{first, second}})

	_, err := engine.FindEmail(context.Background(), engineReq)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, second.calls)
}

func TestFindEmailCacheHit(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012, result: found("jane@example.com")}
	engine := newTestEngine(Options{Providers: []provider.Provider{first}})

	one, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, model.SourceHunter, one.Source)

	// Identical normalized input within TTL: served from cache, provider
	// not invoked again.
	upper := engineReq
	upper.FirstName = "JANE"
	two, err := engine.FindEmail(context.Background(), upper)
	require.NoError(t, err)
	assert.Equal(t, model.SourceCache, two.Source)
	assert.Equal(t, one.Email, two.Email)
	assert.Equal(t, 1, first.calls)

	stats := engine.Stats()
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 2, stats.TotalRequests)
}

func TestFindEmailNotFoundNotCached(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012}
	engine := newTestEngine(Options{Providers: []provider.Provider{first}})

	result, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Equal(t, model.SourceNotFound, result.Source)
	assert.Empty(t, result.Email)

	// A second identical call re-invokes the provider.
	_, err = engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, 2, first.calls)

	stats := engine.Stats()
	assert.Equal(t, 0, stats.CacheHits)
	assert.Equal(t, 2, stats.TotalNotFound)
}

func TestFindEmailEmptyEmailIsNeitherSuccessNorFailure(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012, result: &provider.Result{}}
	engine := newTestEngine(Options{Providers: []provider.Provider{first}})

	result, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, model.SourceNotFound, result.Source)

	stats := engine.Stats()
	assert.Equal(t, 1, stats.Services["hunter"].Requests)
	assert.Equal(t, 0, stats.Services["hunter"].Successes)
	assert.Equal(t, 0, stats.Services["hunter"].Failures)
}

func TestFindEmailVerificationVeto(t *testing.T) {
	t.Parallel()

	first := &mockProvider{
		name:   model.SourceHunter,
		cost:   0.012,
		result: &provider.Result{Email: "stale@example.com", Confidence: 0.7},
	}
	second := &mockProvider{name: model.SourceSnov, cost: 0.010, result: found("jane@example.com")}
	verifier := &mockVerifier{verification: &provider.Verification{Deliverable: false}}
	engine := newTestEngine(Options{
		Providers:     []provider.Provider{first, second},
		Verifier:      verifier,
		VerifyResults: true,
	})

	result, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", result.Email)
	assert.Equal(t, model.SourceSnov, result.Source)
	assert.Contains(t, result.RawResponses["hunter"], "verification rejected")

	// Hunter's find plus one verification, Snov pre-verified.
	assert.Equal(t, 1, verifier.calls)
	assert.InDelta(t, 0.012+0.004+0.010, result.TotalCost, 1e-9)
}

func TestFindEmailVerificationUnavailableAccepts(t *testing.T) {
	t.Parallel()

	first := &mockProvider{
		name:   model.SourceHunter,
		cost:   0.012,
		result: &provider.Result{Email: "jane@example.com", Confidence: 0.7},
	}
	verifier := &mockVerifier{err: errors.New("zerobounce down")}
	engine := newTestEngine(Options{
		Providers:     []provider.Provider{first},
		Verifier:      verifier,
		VerifyResults: true,
	})

	result, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", result.Email)
	assert.False(t, result.Verified)
}

func TestFindEmailVerificationUnknownAccepts(t *testing.T) {
	t.Parallel()

	first := &mockProvider{
		name:   model.SourceHunter,
		cost:   0.012,
		result: &provider.Result{Email: "jane@example.com", Confidence: 0.7},
	}
	verifier := &mockVerifier{verification: &provider.Verification{Unknown: true}}
	engine := newTestEngine(Options{
		Providers:     []provider.Provider{first},
		Verifier:      verifier,
		VerifyResults: true,
	})

	// An indeterminate answer is not a rejection: the candidate is accepted
	// with its original flag.
	result, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", result.Email)
	assert.False(t, result.Verified)
	assert.Equal(t, 1, verifier.calls)
}

func TestFindEmailVerificationPassUpgradesFlag(t *testing.T) {
	t.Parallel()

	first := &mockProvider{
		name:   model.SourceHunter,
		cost:   0.012,
		result: &provider.Result{Email: "jane@example.com", Confidence: 0.7},
	}
	verifier := &mockVerifier{verification: &provider.Verification{Valid: true, Deliverable: true}}
	engine := newTestEngine(Options{
		Providers:     []provider.Provider{first},
		Verifier:      verifier,
		VerifyResults: true,
	})

	result, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestFindEmailPreVerifiedSkipsVerifier(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012, result: found("jane@example.com")}
	verifier := &mockVerifier{verification: &provider.Verification{Deliverable: false}}
	engine := newTestEngine(Options{
		Providers:     []provider.Provider{first},
		Verifier:      verifier,
		VerifyResults: true,
	})

	result, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", result.Email)
	assert.Equal(t, 0, verifier.calls)
}

// cancelingProvider cancels the lookup mid-call and reports the resulting
// context error the way the adapters wrap every vendor failure.
type cancelingProvider struct {
	mockProvider
	cancel context.CancelFunc
}

func (p *cancelingProvider) FindEmail(ctx context.Context, _ model.LookupRequest) (*provider.Result, error) {
	p.calls++
	p.cancel()
	return nil, provider.NewError(p.name, ctx.Err())
}

// cancelingVerifier cancels the lookup mid-verification.
type cancelingVerifier struct {
	mockVerifier
	cancel context.CancelFunc
}

func (v *cancelingVerifier) Verify(ctx context.Context, _ string) (*provider.Verification, error) {
	v.calls++
	v.cancel()
	return nil, ctx.Err()
}

func TestFindEmailCancellationAborts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	first := &cancelingProvider{
		mockProvider: mockProvider{name: model.SourceHunter, cost: 0.012},
		cancel:       cancel,
	}
	second := &mockProvider{name: model.SourceSnov, cost: 0.010, result: found("jane@example.com")}
	engine := newTestEngine(Options{Providers: []provider.Provider{first, second}})

	result, err := engine.FindEmail(ctx, engineReq)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)

	// The cascade stops: no further provider is invoked, and cancellation is
	// booked as neither a provider failure nor a not_found outcome.
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
	stats := engine.Stats()
	assert.Equal(t, 0, stats.Services["hunter"].Failures)
	assert.Equal(t, 0, stats.Services["snov"].Requests)
	assert.Equal(t, 0, stats.TotalNotFound)
}

func TestFindEmailCancellationDuringVerificationAborts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	first := &mockProvider{
		name:   model.SourceHunter,
		cost:   0.012,
		result: &provider.Result{Email: "jane@example.com", Confidence: 0.7},
	}
	verifier := &cancelingVerifier{cancel: cancel}
	engine := newTestEngine(Options{
		Providers:     []provider.Provider{first},
		Verifier:      verifier,
		VerifyResults: true,
	})

	result, err := engine.FindEmail(ctx, engineReq)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Equal(t, 0, engine.Stats().Services["zerobounce"].Failures)
}

func TestFindEmailSkipList(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012, result: found("hunter@example.com")}
	second := &mockProvider{name: model.SourceSnov, cost: 0.010, result: found("snov@example.com")}
	engine := newTestEngine(Options{Providers: []provider.Provider{first, second}})

	req := engineReq
	req.Skip = []model.Source{model.SourceHunter}
	result, err := engine.FindEmail(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.SourceSnov, result.Source)
	assert.NotContains(t, result.ServicesTried, model.SourceHunter)
	assert.Equal(t, 0, first.calls)
}

func TestFindEmailCircuitBreakerSkipsOpenProvider(t *testing.T) {
	t.Parallel()

	flaky := &mockProvider{
		name: model.SourceHunter,
		cost: 0.012,
		err:  provider.NewError(model.SourceHunter, errors.New("upstream 500")),
	}
	steady := &mockProvider{name: model.SourceSnov, cost: 0.010, result: found("jane@example.com")}
	engine := newTestEngine(Options{
		Providers: []provider.Provider{flaky, steady},
		Breaker:   resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour},
	})

	// Distinct lookups so the cascade runs each time. Two failures open
	// the breaker; the third lookup skips the provider entirely.
	for i, domain := range []string{"a.com", "b.com", "c.com"} {
		req := engineReq
		req.Domain = domain
		result, err := engine.FindEmail(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, model.SourceSnov, result.Source)
		if i == 2 {
			assert.NotContains(t, result.ServicesTried, model.SourceHunter)
			assert.Equal(t, "circuit open", result.RawResponses["hunter"])
		}
	}
	assert.Equal(t, 2, flaky.calls)
}

func TestStatsInvariantAndReset(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012}
	second := &mockProvider{name: model.SourceSnov, cost: 0.010, result: found("jane@example.com")}
	engine := newTestEngine(Options{
		Providers: []provider.Provider{first, second},
		Cache:     cache.NewMemory(),
	})

	const n = 4
	for i := 0; i < n; i++ {
		req := engineReq
		req.Domain = string(rune('a'+i)) + ".com"
		_, err := engine.FindEmail(context.Background(), req)
		require.NoError(t, err)
	}

	stats := engine.Stats()
	assert.Equal(t, n, stats.TotalRequests)
	assert.Equal(t, n, stats.TotalFound)
	sum := 0
	for _, svc := range stats.Services {
		sum += svc.Requests
	}
	assert.GreaterOrEqual(t, sum, n)
	assert.InDelta(t, n*(0.012+0.010), stats.TotalCost, 1e-9)
	assert.InDelta(t, 1.0, stats.OverallSuccessRate(), 1e-9)

	engine.ResetStats()
	stats = engine.Stats()
	assert.Equal(t, 0, stats.TotalRequests)
	assert.Equal(t, 0, stats.TotalFound)
	assert.Zero(t, stats.TotalCost)
	require.Contains(t, stats.Services, "hunter")
	require.Contains(t, stats.Services, "snov")
	assert.Equal(t, 0, stats.Services["hunter"].Requests)
}

func TestStatsSnapshotIsDeepCopy(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012, result: found("jane@example.com")}
	engine := newTestEngine(Options{Providers: []provider.Provider{first}})

	snap := engine.Stats()
	snap.Services["hunter"].Requests = 99

	assert.Equal(t, 0, engine.Stats().Services["hunter"].Requests)
}

func TestClearCache(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: model.SourceHunter, cost: 0.012, result: found("jane@example.com")}
	engine := newTestEngine(Options{Providers: []provider.Provider{first}})

	_, err := engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	require.NoError(t, engine.ClearCache(context.Background()))

	_, err = engine.FindEmail(context.Background(), engineReq)
	require.NoError(t, err)
	assert.Equal(t, 2, first.calls)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	healthy := &mockProvider{name: model.SourceHunter}
	sick := &mockProvider{name: model.SourceSnov, healthErr: errors.New("401 unauthorized")}
	engine := newTestEngine(Options{
		Providers: []provider.Provider{healthy, sick},
		Verifier:  &mockVerifier{},
	})

	report := engine.HealthCheck(context.Background())
	assert.False(t, report.Healthy)
	assert.True(t, report.Services["hunter"].Healthy)
	assert.False(t, report.Services["snov"].Healthy)
	assert.Contains(t, report.Services["snov"].Error, "401")
	assert.True(t, report.Services["zerobounce"].Healthy)
}

func TestHealthCheckAllHealthy(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(Options{
		Providers: []provider.Provider{&mockProvider{name: model.SourceHunter}},
	})
	report := engine.HealthCheck(context.Background())
	assert.True(t, report.Healthy)
	assert.Len(t, report.Services, 1)
}

func TestProvidersOrder(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(Options{Providers: []provider.Provider{
		&mockProvider{name: model.SourceHunter},
		&mockProvider{name: model.SourceSnov},
	}})
	assert.Equal(t, []model.Source{model.SourceHunter, model.SourceSnov}, engine.Providers())
}
