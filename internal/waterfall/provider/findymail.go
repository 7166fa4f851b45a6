package provider

import (
	"context"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/findymail"
)

// Findymail adapts the Findymail search API. Findymail only returns
// addresses it has already verified, so results are high confidence.
type Findymail struct {
	client findymail.Client
	cost   float64
	retry  resilience.RetryConfig
}

// NewFindymail creates the Findymail adapter.
func NewFindymail(client findymail.Client, cost float64) *Findymail {
	return &Findymail{client: client, cost: cost, retry: lookupRetry(model.SourceFindymail)}
}

func (p *Findymail) Name() model.Source { return model.SourceFindymail }

func (p *Findymail) UnitCost() float64 { return p.cost }

func (p *Findymail) FindEmail(ctx context.Context, req model.LookupRequest) (*Result, error) {
	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*findymail.FindResponse, error) {
		if req.LinkedInURL != "" {
			return p.client.FindByLinkedIn(ctx, req.LinkedInURL)
		}
		return p.client.FindByName(ctx, findymail.FindByNameRequest{
			Name:   strings.TrimSpace(req.FirstName + " " + req.LastName),
			Domain: req.Domain,
		})
	})
	if err != nil {
		if isNotFoundStatus(err) {
			return nil, nil
		}
		return nil, NewError(model.SourceFindymail, err)
	}
	if resp.Contact.Email == "" {
		return nil, nil
	}

	return &Result{
		Email:      resp.Contact.Email,
		Confidence: 0.9,
		Verified:   true,
		Raw:        resp.Contact,
	}, nil
}

func (p *Findymail) HealthCheck(ctx context.Context) error {
	_, err := p.client.Credits(ctx)
	return err
}
