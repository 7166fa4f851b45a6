package provider

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/zerobounce"
)

// ZeroBounce adapts the ZeroBounce validation API as the cascade's verifier.
type ZeroBounce struct {
	client zerobounce.Client
	cost   float64
	retry  resilience.RetryConfig
}

// NewZeroBounce creates the ZeroBounce verifier.
func NewZeroBounce(client zerobounce.Client, cost float64) *ZeroBounce {
	return &ZeroBounce{client: client, cost: cost, retry: lookupRetry(model.SourceZeroBounce)}
}

func (v *ZeroBounce) UnitCost() float64 { return v.cost }

func (v *ZeroBounce) Verify(ctx context.Context, email string) (*Verification, error) {
	resp, err := resilience.DoVal(ctx, v.retry, func(ctx context.Context) (*zerobounce.ValidateResponse, error) {
		return v.client.Validate(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	return &Verification{
		Valid:       resp.Status == zerobounce.StatusValid,
		Deliverable: resp.Deliverable(),
		CatchAll:    resp.Status == zerobounce.StatusCatchAll,
		Unknown:     resp.Status == zerobounce.StatusUnknown,
	}, nil
}

func (v *ZeroBounce) HealthCheck(ctx context.Context) error {
	_, err := v.client.Credits(ctx)
	return err
}
