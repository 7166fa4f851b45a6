package waterfall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/model"
)

// HealthCheck probes every configured provider plus the verifier
// concurrently. A probe that errors marks its service unhealthy with the
// error captured; it is never re-raised. The aggregate is healthy only when
// every service is.
func (e *Engine) HealthCheck(ctx context.Context) model.HealthReport {
	report := model.HealthReport{
		Healthy:  true,
		Services: make(map[string]model.ServiceHealth, len(e.providers)+1),
	}

	type probe struct {
		name  model.Source
		check func(context.Context) error
	}
	probes := make([]probe, 0, len(e.providers)+1)
	for _, p := range e.providers {
		probes = append(probes, probe{name: p.Name(), check: p.HealthCheck})
	}
	if e.verifier != nil {
		probes = append(probes, probe{name: model.SourceZeroBounce, check: e.verifier.HealthCheck})
	}

	healths := make([]model.ServiceHealth, len(probes))
	g := new(errgroup.Group)
	for i, pr := range probes {
		g.Go(func() error {
			start := time.Now()
			err := pr.check(ctx)
			health := model.ServiceHealth{
				Healthy:    err == nil,
				DurationMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				health.Error = err.Error()
			}
			healths[i] = health
			return nil
		})
	}
	_ = g.Wait()

	for i, pr := range probes {
		report.Services[string(pr.name)] = healths[i]
		if !healths[i].Healthy {
			report.Healthy = false
		}
	}
	return report
}
