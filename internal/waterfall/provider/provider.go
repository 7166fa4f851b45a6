// Package provider defines the interface and implementations for the
// email lookup providers in the waterfall cascade.
package provider

import (
	"context"
	"fmt"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Result is a successful email lookup from one provider.
type Result struct {
	Email      string
	Confidence float64
	Verified   bool
	Phone      string
	Raw        any
}

// Verification is the outcome of checking an address for deliverability.
// Unknown marks an indeterminate answer (the verifier could not decide
// either way); it is not a rejection.
type Verification struct {
	Valid       bool
	Deliverable bool
	CatchAll    bool
	Unknown     bool
}

// Provider is a single paid email lookup service in the cascade.
type Provider interface {
	// Name returns the source identifier used in stats and results.
	Name() model.Source
	// UnitCost returns the per-lookup cost in USD.
	UnitCost() float64
	// FindEmail looks up an email for the person. A nil Result with a nil
	// error means the provider had no match.
	FindEmail(ctx context.Context, req model.LookupRequest) (*Result, error)
	// HealthCheck probes the provider's account or credits endpoint.
	HealthCheck(ctx context.Context) error
}

// Verifier validates a found address before it is accepted as a winner.
type Verifier interface {
	Verify(ctx context.Context, email string) (*Verification, error)
	UnitCost() float64
	HealthCheck(ctx context.Context) error
}

// Error marks a provider-level failure that the cascade should absorb and
// move past rather than abort the lookup.
type Error struct {
	Provider model.Source
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a cascade-absorbable provider failure.
func NewError(p model.Source, err error) *Error {
	return &Error{Provider: p, Err: err}
}
