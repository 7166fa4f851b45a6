// Package waterfall orchestrates the email enrichment cascade: a fixed
// priority list of paid lookup providers tried in order, with caching,
// optional verification, and cost accounting. The order encodes a
// cost/accuracy trade-off; the first surviving result wins and cheaper
// providers are never bypassed for a "best of all" comparison.
package waterfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/cache"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/waterfall/provider"
)

// ValidationError reports a missing required lookup field. It is a
// precondition failure: no provider is invoked and no stats are mutated.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("waterfall: missing required field %q", e.Field)
}

// Options configures an Engine.
type Options struct {
	// Providers is the configured provider set in priority order.
	Providers []provider.Provider
	// Verifier validates found addresses. Nil disables verification.
	Verifier provider.Verifier
	// Cache stores found results. Nil disables caching.
	Cache cache.Store
	// CacheTTL is how long cached results stay valid.
	CacheTTL time.Duration
	// VerifyResults enables the verification step for unverified finds.
	VerifyResults bool
	// Breaker configures the per-provider circuit breakers.
	Breaker resilience.CircuitBreakerConfig
}

// Engine runs the enrichment waterfall.
type Engine struct {
	providers []provider.Provider
	verifier  provider.Verifier
	store     cache.Store
	cacheTTL  time.Duration
	verify    bool
	breakers  map[model.Source]*resilience.CircuitBreaker
	stats     *statsTracker
}

// New creates an engine from the configured provider set.
func New(opts Options) *Engine {
	sources := make([]model.Source, 0, len(opts.Providers)+1)
	breakers := make(map[model.Source]*resilience.CircuitBreaker, len(opts.Providers))
	for _, p := range opts.Providers {
		sources = append(sources, p.Name())
		breakers[p.Name()] = resilience.NewCircuitBreaker(opts.Breaker)
	}
	if opts.Verifier != nil {
		sources = append(sources, model.SourceZeroBounce)
	}

	return &Engine{
		providers: opts.Providers,
		verifier:  opts.Verifier,
		store:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		verify:    opts.VerifyResults,
		breakers:  breakers,
		stats:     newStatsTracker(sources),
	}
}

// Providers returns the configured provider names in priority order.
func (e *Engine) Providers() []model.Source {
	names := make([]model.Source, len(e.providers))
	for i, p := range e.providers {
		names[i] = p.Name()
	}
	return names
}

// FindEmail runs one lookup through the cascade. It returns an error only
// for precondition failures and unexpected (non-provider) errors; "no email
// found anywhere" is a normal outcome reported via Source == not_found.
func (e *Engine) FindEmail(ctx context.Context, req model.LookupRequest) (*model.EnrichmentResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	start := time.Now()

	key := cache.Key(req.FirstName, req.LastName, req.Domain, req.Company)
	if e.store != nil {
		cached, err := e.store.Get(ctx, key)
		if err != nil {
			zap.L().Warn("cache read failed",
				zap.String("key", key),
				zap.Error(err),
			)
		} else if cached != nil {
			hit := *cached
			hit.Source = model.SourceCache
			hit.DurationMs = time.Since(start).Milliseconds()
			e.stats.recordRequest()
			e.stats.recordCacheHit()
			return &hit, nil
		}
	}

	e.stats.recordRequest()

	skip := req.SkipSet()
	var tried []model.Source
	raw := make(map[string]string)
	var totalCost float64

	for _, p := range e.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := p.Name()
		if skip[name] {
			continue
		}
		breaker := e.breakers[name]
		if breaker != nil && !breaker.Allow() {
			raw[string(name)] = "circuit open"
			continue
		}

		tried = append(tried, name)
		totalCost += p.UnitCost()
		e.stats.recordAttempt(name, p.UnitCost())

		attemptStart := time.Now()
		res, err := p.FindEmail(ctx, req)
		latencyMs := float64(time.Since(attemptStart).Milliseconds())
		e.stats.recordLatency(name, latencyMs)

		if err != nil {
			// Adapters wrap everything the vendor client returns, including
			// the caller's own cancellation. Cancellation is not a provider
			// failure: it must abort the lookup without touching breakers or
			// failure counters.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			var provErr *provider.Error
			if !errors.As(err, &provErr) {
				// Not a provider failure: a contract violation that must
				// abort the whole lookup.
				return nil, err
			}
			if breaker != nil {
				breaker.RecordFailure()
			}
			e.stats.recordFailure(name)
			raw[string(name)] = provErr.Error()
			zap.L().Warn("provider failed, continuing cascade",
				zap.String("provider", string(name)),
				zap.Float64("latency_ms", latencyMs),
				zap.Error(provErr),
			)
			continue
		}
		if breaker != nil {
			breaker.RecordSuccess()
		}

		if res == nil || res.Email == "" {
			raw[string(name)] = "no match"
			zap.L().Debug("provider had no match",
				zap.String("provider", string(name)),
				zap.Float64("latency_ms", latencyMs),
			)
			continue
		}

		e.stats.recordSuccess(name)

		verified := res.Verified
		if !verified && e.verify && e.verifier != nil {
			outcome, vcost, verr := e.verifyCandidate(ctx, res.Email)
			totalCost += vcost
			if verr != nil {
				return nil, verr
			}
			if outcome == verifyRejected {
				raw[string(name)] = fmt.Sprintf("found %s but verification rejected it", res.Email)
				zap.L().Info("verification vetoed candidate, continuing cascade",
					zap.String("provider", string(name)),
				)
				continue
			}
			// Unavailable verification accepts the candidate with its
			// original flag; a passing check upgrades it.
			verified = outcome == verifyPassed
		}

		raw[string(name)] = rawString(res.Raw)
		result := &model.EnrichmentResult{
			Email:         res.Email,
			Source:        name,
			Confidence:    res.Confidence,
			Verified:      verified,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Domain:        req.Domain,
			Company:       req.Company,
			Phone:         res.Phone,
			ServicesTried: tried,
			TotalCost:     totalCost,
			DurationMs:    time.Since(start).Milliseconds(),
			RawResponses:  raw,
		}
		e.stats.recordFound()

		if e.store != nil {
			if err := e.store.Set(ctx, key, result, e.cacheTTL); err != nil {
				zap.L().Warn("cache write failed",
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}

		zap.L().Info("email found",
			zap.String("provider", string(name)),
			zap.Float64("confidence", res.Confidence),
			zap.Float64("total_cost", totalCost),
			zap.Int64("duration_ms", result.DurationMs),
		)
		return result, nil
	}

	e.stats.recordNotFound()
	zap.L().Info("waterfall exhausted",
		zap.Int("providers_tried", len(tried)),
		zap.Float64("total_cost", totalCost),
	)
	return &model.EnrichmentResult{
		Source:        model.SourceNotFound,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Domain:        req.Domain,
		Company:       req.Company,
		ServicesTried: tried,
		TotalCost:     totalCost,
		DurationMs:    time.Since(start).Milliseconds(),
		RawResponses:  raw,
	}, nil
}

type verifyOutcome int

const (
	verifyPassed verifyOutcome = iota
	verifyRejected
	verifyUnavailable
)

// verifyCandidate checks deliverability of a found address. An unavailable
// verifier (call error) or an indeterminate answer accepts the candidate:
// recall over precision. Only an explicit non-deliverable report rejects.
// A non-nil error means the caller canceled and the lookup must abort.
func (e *Engine) verifyCandidate(ctx context.Context, email string) (verifyOutcome, float64, error) {
	cost := e.verifier.UnitCost()
	e.stats.recordAttempt(model.SourceZeroBounce, cost)

	verifyStart := time.Now()
	verification, err := e.verifier.Verify(ctx, email)
	e.stats.recordLatency(model.SourceZeroBounce, float64(time.Since(verifyStart).Milliseconds()))

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return verifyUnavailable, cost, err
		}
		e.stats.recordFailure(model.SourceZeroBounce)
		zap.L().Warn("verification unavailable, accepting unverified",
			zap.Error(err),
		)
		return verifyUnavailable, cost, nil
	}
	e.stats.recordSuccess(model.SourceZeroBounce)
	if verification.Unknown {
		return verifyUnavailable, cost, nil
	}
	if !verification.Deliverable {
		return verifyRejected, cost, nil
	}
	return verifyPassed, cost, nil
}

// ClearCache drops every cached entry.
func (e *Engine) ClearCache(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	return e.store.Clear(ctx)
}

// Stats returns a snapshot of the lifetime counters.
func (e *Engine) Stats() model.WaterfallStats {
	return e.stats.snapshot()
}

// ResetStats zeroes every counter and re-creates the per-provider entries.
func (e *Engine) ResetStats() {
	e.stats.reset()
}

// Close releases the cache store and any adapter holding closable resources.
func (e *Engine) Close() error {
	var firstErr error
	for _, p := range e.providers {
		if closer, ok := p.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func validate(req model.LookupRequest) error {
	if req.FirstName == "" {
		return &ValidationError{Field: "first_name"}
	}
	if req.LastName == "" {
		return &ValidationError{Field: "last_name"}
	}
	if req.Domain == "" && req.Company == "" {
		return &ValidationError{Field: "domain or company"}
	}
	return nil
}

func rawString(raw any) string {
	if raw == nil {
		return ""
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%+v", raw)
	}
	return string(data)
}
