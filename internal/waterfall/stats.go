package waterfall

import (
	"sync"

	"github.com/sells-group/prospect-cli/internal/model"
)

// statsTracker holds the lifetime counters. Batch lookups run on multiple
// goroutines, so every mutation and snapshot goes through the mutex.
type statsTracker struct {
	mu      sync.Mutex
	stats   model.WaterfallStats
	sources []model.Source
}

func newStatsTracker(sources []model.Source) *statsTracker {
	t := &statsTracker{sources: sources}
	t.stats = emptyStats(sources)
	return t
}

func emptyStats(sources []model.Source) model.WaterfallStats {
	services := make(map[string]*model.ServiceStats, len(sources))
	for _, s := range sources {
		services[string(s)] = &model.ServiceStats{}
	}
	return model.WaterfallStats{Services: services}
}

func (t *statsTracker) recordRequest() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalRequests++
}

func (t *statsTracker) recordCacheHit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.CacheHits++
}

func (t *statsTracker) recordAttempt(name model.Source, cost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	svc := t.service(name)
	svc.Requests++
	svc.TotalCost += cost
	t.stats.TotalCost += cost
}

func (t *statsTracker) recordLatency(name model.Source, ms float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	svc := t.service(name)
	if svc.Requests == 0 {
		svc.AvgLatencyMs = ms
		return
	}
	svc.AvgLatencyMs += (ms - svc.AvgLatencyMs) / float64(svc.Requests)
}

func (t *statsTracker) recordSuccess(name model.Source) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.service(name).Successes++
}

func (t *statsTracker) recordFailure(name model.Source) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.service(name).Failures++
}

func (t *statsTracker) recordFound() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalFound++
}

func (t *statsTracker) recordNotFound() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalNotFound++
}

// service returns the entry for name, creating it if the name was not part
// of the configured set (never expected, but a lost counter is worse).
func (t *statsTracker) service(name model.Source) *model.ServiceStats {
	svc, ok := t.stats.Services[string(name)]
	if !ok {
		svc = &model.ServiceStats{}
		t.stats.Services[string(name)] = svc
	}
	return svc
}

// snapshot returns a deep copy safe to hand to callers.
func (t *statsTracker) snapshot() model.WaterfallStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.stats
	out.Services = make(map[string]*model.ServiceStats, len(t.stats.Services))
	for name, svc := range t.stats.Services {
		copied := *svc
		out.Services[name] = &copied
	}
	return out
}

// reset zeroes every counter and re-creates the per-provider entries.
func (t *statsTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = emptyStats(t.sources)
}
