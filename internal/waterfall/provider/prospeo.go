package provider

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/prospeo"
)

// Prospeo adapts the Prospeo email finder. Prospeo keys the lookup on the
// company name or domain passed through the company field.
type Prospeo struct {
	client prospeo.Client
	cost   float64
	retry  resilience.RetryConfig
}

// NewProspeo creates the Prospeo adapter.
func NewProspeo(client prospeo.Client, cost float64) *Prospeo {
	return &Prospeo{client: client, cost: cost, retry: lookupRetry(model.SourceProspeo)}
}

func (p *Prospeo) Name() model.Source { return model.SourceProspeo }

func (p *Prospeo) UnitCost() float64 { return p.cost }

func (p *Prospeo) FindEmail(ctx context.Context, req model.LookupRequest) (*Result, error) {
	company := req.Domain
	if company == "" {
		company = req.Company
	}

	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*prospeo.FindEmailResponse, error) {
		return p.client.FindEmail(ctx, prospeo.FindEmailRequest{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Company:   company,
		})
	})
	if err != nil {
		if isNotFoundStatus(err) {
			return nil, nil
		}
		return nil, NewError(model.SourceProspeo, err)
	}
	if resp.Error || resp.Response.Email == "" {
		return nil, nil
	}

	conf, verified := prospeoConfidence(resp.Response.EmailStatus)
	return &Result{
		Email:      resp.Response.Email,
		Confidence: conf,
		Verified:   verified,
		Raw:        resp.Response,
	}, nil
}

func (p *Prospeo) HealthCheck(ctx context.Context) error {
	_, err := p.client.Account(ctx)
	return err
}

func prospeoConfidence(status string) (float64, bool) {
	switch status {
	case "VALID":
		return 0.95, true
	case "ACCEPT_ALL":
		return 0.7, false
	default:
		return 0.5, false
	}
}
