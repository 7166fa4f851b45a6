package provider

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/anymailfinder"
)

// Anymailfinder adapts the Anymail Finder person search.
type Anymailfinder struct {
	client anymailfinder.Client
	cost   float64
	retry  resilience.RetryConfig
}

// NewAnymailfinder creates the Anymail Finder adapter.
func NewAnymailfinder(client anymailfinder.Client, cost float64) *Anymailfinder {
	return &Anymailfinder{client: client, cost: cost, retry: lookupRetry(model.SourceAnymailfinder)}
}

func (p *Anymailfinder) Name() model.Source { return model.SourceAnymailfinder }

func (p *Anymailfinder) UnitCost() float64 { return p.cost }

func (p *Anymailfinder) FindEmail(ctx context.Context, req model.LookupRequest) (*Result, error) {
	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*anymailfinder.FindPersonResponse, error) {
		return p.client.FindPerson(ctx, anymailfinder.FindPersonRequest{
			Domain:      req.Domain,
			CompanyName: req.Company,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
		})
	})
	if err != nil {
		// Anymail Finder reports "no email found" as a 404.
		if isNotFoundStatus(err) {
			return nil, nil
		}
		return nil, NewError(model.SourceAnymailfinder, err)
	}
	if !resp.Success || resp.Results.Email == "" {
		return nil, nil
	}

	verified := resp.Results.Validation == "valid"
	conf := 0.6
	if verified {
		conf = 0.95
	}
	return &Result{
		Email:      resp.Results.Email,
		Confidence: conf,
		Verified:   verified,
		Raw:        resp.Results,
	}, nil
}

func (p *Anymailfinder) HealthCheck(ctx context.Context) error {
	_, err := p.client.Account(ctx)
	return err
}
