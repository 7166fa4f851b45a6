package provider

import (
	"context"
	"errors"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/hunter"
)

// Hunter adapts the Hunter.io email finder.
type Hunter struct {
	client hunter.Client
	cost   float64
	retry  resilience.RetryConfig
}

// NewHunter creates the Hunter adapter.
func NewHunter(client hunter.Client, cost float64) *Hunter {
	return &Hunter{client: client, cost: cost, retry: lookupRetry(model.SourceHunter)}
}

func (p *Hunter) Name() model.Source { return model.SourceHunter }

func (p *Hunter) UnitCost() float64 { return p.cost }

func (p *Hunter) FindEmail(ctx context.Context, req model.LookupRequest) (*Result, error) {
	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*hunter.FindEmailResponse, error) {
		return p.client.FindEmail(ctx, hunter.FindEmailRequest{
			Domain:    req.Domain,
			Company:   req.Company,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
	})
	if err != nil {
		if isNotFoundStatus(err) {
			return nil, nil
		}
		return nil, NewError(model.SourceHunter, err)
	}
	if resp.Data.Email == "" {
		return nil, nil
	}

	return &Result{
		Email:      resp.Data.Email,
		Confidence: float64(resp.Data.Score) / 100,
		Verified:   resp.Data.Verification.Status == "valid",
		Phone:      resp.Data.PhoneNumber,
		Raw:        resp.Data,
	}, nil
}

func (p *Hunter) HealthCheck(ctx context.Context) error {
	_, err := p.client.Account(ctx)
	return err
}

// lookupRetry is the shared retry policy for provider lookup calls.
func lookupRetry(name model.Source) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger(string(name))
	return cfg
}

// isNotFoundStatus reports whether err is a vendor 404; every vendor uses
// 404 for "no match" rather than an outage.
func isNotFoundStatus(err error) bool {
	var coded interface{ HTTPStatus() int }
	return errors.As(err, &coded) && coded.HTTPStatus() == 404
}
