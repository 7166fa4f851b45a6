package provider

import (
	"context"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/rocketreach"
)

// RocketReach adapts the RocketReach profile lookup. It is the most
// expensive provider in the cascade and runs last.
type RocketReach struct {
	client rocketreach.Client
	cost   float64
	retry  resilience.RetryConfig
}

// NewRocketReach creates the RocketReach adapter.
func NewRocketReach(client rocketreach.Client, cost float64) *RocketReach {
	return &RocketReach{client: client, cost: cost, retry: lookupRetry(model.SourceRocketReach)}
}

func (p *RocketReach) Name() model.Source { return model.SourceRocketReach }

func (p *RocketReach) UnitCost() float64 { return p.cost }

func (p *RocketReach) FindEmail(ctx context.Context, req model.LookupRequest) (*Result, error) {
	employer := req.Company
	if employer == "" {
		employer = req.Domain
	}

	profile, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*rocketreach.Profile, error) {
		return p.client.LookupProfile(ctx, rocketreach.LookupRequest{
			Name:            strings.TrimSpace(req.FirstName + " " + req.LastName),
			CurrentEmployer: employer,
			LinkedInURL:     req.LinkedInURL,
		})
	})
	if err != nil {
		if isNotFoundStatus(err) {
			return nil, nil
		}
		return nil, NewError(model.SourceRocketReach, err)
	}

	best := profile.BestEmail()
	if best == nil || best.Email == "" {
		return nil, nil
	}

	verified := best.SMTPValid == "valid"
	conf := 0.6
	if verified {
		conf = 0.9
	}
	var phone string
	if len(profile.Phones) > 0 {
		phone = profile.Phones[0].Number
	}
	return &Result{
		Email:      best.Email,
		Confidence: conf,
		Verified:   verified,
		Phone:      phone,
		Raw:        profile,
	}, nil
}

func (p *RocketReach) HealthCheck(ctx context.Context) error {
	_, err := p.client.Account(ctx)
	return err
}
