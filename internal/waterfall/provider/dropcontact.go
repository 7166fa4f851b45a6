package provider

import (
	"context"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/dropcontact"
)

// Dropcontact adapts the Dropcontact enrichment API. Dropcontact is
// asynchronous: each lookup submits a one-contact batch and polls for the
// result.
type Dropcontact struct {
	client   dropcontact.Client
	cost     float64
	retry    resilience.RetryConfig
	pollOpts []dropcontact.PollOption
}

// NewDropcontact creates the Dropcontact adapter.
func NewDropcontact(client dropcontact.Client, cost float64, pollOpts ...dropcontact.PollOption) *Dropcontact {
	return &Dropcontact{
		client:   client,
		cost:     cost,
		retry:    lookupRetry(model.SourceDropcontact),
		pollOpts: pollOpts,
	}
}

func (p *Dropcontact) Name() model.Source { return model.SourceDropcontact }

func (p *Dropcontact) UnitCost() float64 { return p.cost }

func (p *Dropcontact) FindEmail(ctx context.Context, req model.LookupRequest) (*Result, error) {
	result, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*dropcontact.EnrichResult, error) {
		ack, err := p.client.Enrich(ctx, dropcontact.EnrichRequest{
			Data: []dropcontact.ContactInput{{
				FirstName: req.FirstName,
				LastName:  req.LastName,
				Website:   req.Domain,
				Company:   req.Company,
				LinkedIn:  req.LinkedInURL,
			}},
		})
		if err != nil {
			return nil, err
		}
		return dropcontact.PollEnrich(ctx, p.client, ack.RequestID, p.pollOpts...)
	})
	if err != nil {
		return nil, NewError(model.SourceDropcontact, err)
	}

	for _, contact := range result.Data {
		for _, email := range contact.Email {
			if email.Email == "" {
				continue
			}
			conf, verified := qualificationConfidence(email.Qualification)
			return &Result{
				Email:      email.Email,
				Confidence: conf,
				Verified:   verified,
				Phone:      contact.Phone,
				Raw:        contact,
			}, nil
		}
	}
	return nil, nil
}

func (p *Dropcontact) HealthCheck(ctx context.Context) error {
	_, err := p.client.Credits(ctx)
	return err
}

// qualificationConfidence maps Dropcontact's email qualification to a
// confidence score. Nominative professional addresses are server-verified.
func qualificationConfidence(q string) (float64, bool) {
	switch {
	case strings.Contains(q, "nominative"):
		return 0.95, true
	case strings.Contains(q, "pro"):
		return 0.8, false
	case strings.Contains(q, "risky"):
		return 0.5, false
	default:
		return 0.6, false
	}
}
