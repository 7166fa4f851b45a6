package waterfall

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/cache"
	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/waterfall/provider"
	"github.com/sells-group/prospect-cli/pkg/anymailfinder"
	"github.com/sells-group/prospect-cli/pkg/dropcontact"
	"github.com/sells-group/prospect-cli/pkg/findymail"
	"github.com/sells-group/prospect-cli/pkg/hunter"
	"github.com/sells-group/prospect-cli/pkg/prospeo"
	"github.com/sells-group/prospect-cli/pkg/rocketreach"
	"github.com/sells-group/prospect-cli/pkg/snov"
	"github.com/sells-group/prospect-cli/pkg/tomba"
	"github.com/sells-group/prospect-cli/pkg/zerobounce"
)

// NewFromConfig builds the engine from configured credentials. A provider
// with missing credentials is silently left out of the cascade; dual-secret
// providers need both halves.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Engine, error) {
	costs := DefaultCosts
	if cfg.Waterfall.CostsFile != "" {
		loaded, err := LoadCosts(cfg.Waterfall.CostsFile)
		if err != nil {
			return nil, err
		}
		costs = loaded
	}

	p := cfg.Providers
	var providers []provider.Provider
	if p.Hunter.Key != "" {
		providers = append(providers, provider.NewHunter(
			hunter.NewClient(p.Hunter.Key), costs[model.SourceHunter]))
	}
	if p.Dropcontact.Key != "" {
		providers = append(providers, provider.NewDropcontact(
			dropcontact.NewClient(p.Dropcontact.Key), costs[model.SourceDropcontact]))
	}
	if p.Snov.Enabled() {
		providers = append(providers, provider.NewSnov(
			snov.NewClient(p.Snov.ClientID, p.Snov.ClientSecret), costs[model.SourceSnov]))
	}
	if p.Prospeo.Key != "" {
		providers = append(providers, provider.NewProspeo(
			prospeo.NewClient(p.Prospeo.Key), costs[model.SourceProspeo]))
	}
	if p.Tomba.Enabled() {
		providers = append(providers, provider.NewTomba(
			tomba.NewClient(p.Tomba.Key, p.Tomba.Secret), costs[model.SourceTomba]))
	}
	if p.Findymail.Key != "" {
		providers = append(providers, provider.NewFindymail(
			findymail.NewClient(p.Findymail.Key), costs[model.SourceFindymail]))
	}
	if p.Anymailfinder.Key != "" {
		providers = append(providers, provider.NewAnymailfinder(
			anymailfinder.NewClient(p.Anymailfinder.Key), costs[model.SourceAnymailfinder]))
	}
	if p.RocketReach.Key != "" {
		providers = append(providers, provider.NewRocketReach(
			rocketreach.NewClient(p.RocketReach.Key), costs[model.SourceRocketReach]))
	}

	var verifier provider.Verifier
	if p.ZeroBounce.Key != "" {
		verifier = provider.NewZeroBounce(
			zerobounce.NewClient(p.ZeroBounce.Key), costs[model.SourceZeroBounce])
	}

	var store cache.Store
	if cfg.Waterfall.CacheEnabled {
		var err error
		store, err = openStore(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
	}

	return New(Options{
		Providers:     providers,
		Verifier:      verifier,
		Cache:         store,
		CacheTTL:      time.Duration(cfg.Waterfall.CacheTTLDays) * 24 * time.Hour,
		VerifyResults: cfg.Waterfall.VerifyResults,
	}), nil
}

func openStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return cache.NewMemory(), nil
	case "sqlite":
		return cache.NewSQLite(cfg.DSN)
	case "postgres":
		return cache.NewPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("waterfall: unknown cache driver %q", cfg.Driver)
	}
}
