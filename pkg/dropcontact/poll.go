package dropcontact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInitial = time.Second
	defaultPollCap     = 8 * time.Second
	defaultPollTimeout = 90 * time.Second
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	initial time.Duration
	cap     time.Duration
	timeout time.Duration
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.initial = d
	}
}

// WithPollTimeout overrides the default timeout (applied only if the parent
// context has no deadline).
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// PollEnrich polls GetEnrichResult until the batch finishes, fails, or the
// context expires. Uses exponential backoff: 1s -> 2s -> 4s -> 8s (capped).
func PollEnrich(ctx context.Context, client Client, requestID string, opts ...PollOption) (*EnrichResult, error) {
	cfg := pollConfig{
		initial: defaultPollInitial,
		cap:     defaultPollCap,
		timeout: defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	interval := cfg.initial
	for {
		result, err := client.GetEnrichResult(ctx, requestID)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("dropcontact: poll enrich %s", requestID))
		}

		if result.Success {
			return result, nil
		}
		if !isPending(result.Reason) {
			return nil, eris.Errorf("dropcontact: enrich %s failed: %s", requestID, result.Reason)
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("dropcontact: poll enrich %s timed out", requestID))
		case <-time.After(interval):
		}

		interval *= 2
		if interval > cfg.cap {
			interval = cfg.cap
		}
	}
}

func isPending(reason string) bool {
	r := strings.ToLower(reason)
	return strings.Contains(r, "not ready") || strings.Contains(r, "progress")
}
