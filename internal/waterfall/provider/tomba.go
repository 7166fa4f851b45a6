package provider

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/tomba"
)

// Tomba adapts the Tomba email finder.
type Tomba struct {
	client tomba.Client
	cost   float64
	retry  resilience.RetryConfig
}

// NewTomba creates the Tomba adapter.
func NewTomba(client tomba.Client, cost float64) *Tomba {
	return &Tomba{client: client, cost: cost, retry: lookupRetry(model.SourceTomba)}
}

func (p *Tomba) Name() model.Source { return model.SourceTomba }

func (p *Tomba) UnitCost() float64 { return p.cost }

func (p *Tomba) FindEmail(ctx context.Context, req model.LookupRequest) (*Result, error) {
	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*tomba.FindEmailResponse, error) {
		return p.client.FindEmail(ctx, tomba.FindEmailRequest{
			Domain:    req.Domain,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
	})
	if err != nil {
		if isNotFoundStatus(err) {
			return nil, nil
		}
		return nil, NewError(model.SourceTomba, err)
	}
	if resp.Data.Email == "" {
		return nil, nil
	}

	return &Result{
		Email:      resp.Data.Email,
		Confidence: float64(resp.Data.Score) / 100,
		Phone:      resp.Data.Phone,
		Raw:        resp.Data,
	}, nil
}

func (p *Tomba) HealthCheck(ctx context.Context) error {
	_, err := p.client.Account(ctx)
	return err
}
