package provider

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/snov"
)

// Snov adapts the Snov.io email finder.
type Snov struct {
	client snov.Client
	cost   float64
	retry  resilience.RetryConfig
}

// NewSnov creates the Snov adapter.
func NewSnov(client snov.Client, cost float64) *Snov {
	return &Snov{client: client, cost: cost, retry: lookupRetry(model.SourceSnov)}
}

func (p *Snov) Name() model.Source { return model.SourceSnov }

func (p *Snov) UnitCost() float64 { return p.cost }

func (p *Snov) FindEmail(ctx context.Context, req model.LookupRequest) (*Result, error) {
	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*snov.FindEmailResponse, error) {
		return p.client.FindEmail(ctx, snov.FindEmailRequest{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Domain:    req.Domain,
		})
	})
	if err != nil {
		return nil, NewError(model.SourceSnov, err)
	}

	// Prefer server-verified addresses; fall back to unknown status, never
	// return one Snov marked invalid.
	var fallback *snov.Email
	for i := range resp.Data.Emails {
		email := &resp.Data.Emails[i]
		if email.Email == "" {
			continue
		}
		switch email.EmailStatus {
		case "valid":
			return &Result{
				Email:      email.Email,
				Confidence: 0.95,
				Verified:   true,
				Raw:        *email,
			}, nil
		case "not_valid":
		default:
			if fallback == nil {
				fallback = email
			}
		}
	}
	if fallback != nil {
		return &Result{
			Email:      fallback.Email,
			Confidence: 0.5,
			Raw:        *fallback,
		}, nil
	}
	return nil, nil
}

func (p *Snov) HealthCheck(ctx context.Context) error {
	_, err := p.client.Balance(ctx)
	return err
}
