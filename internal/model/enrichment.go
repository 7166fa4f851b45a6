package model

// Source identifies which provider (or pseudo-source) produced a result.
type Source string

const (
	SourceHunter        Source = "hunter"
	SourceDropcontact   Source = "dropcontact"
	SourceSnov          Source = "snov"
	SourceProspeo       Source = "prospeo"
	SourceTomba         Source = "tomba"
	SourceFindymail     Source = "findymail"
	SourceAnymailfinder Source = "anymailfinder"
	SourceRocketReach   Source = "rocketreach"

	// SourceZeroBounce is the verification provider. It never appears as a
	// result source; it shows up in health reports and raw responses.
	SourceZeroBounce Source = "zerobounce"

	// SourceCache marks a result served from the lookup cache.
	SourceCache Source = "cache"
	// SourceNotFound marks a lookup that exhausted every provider.
	SourceNotFound Source = "not_found"
)

// Waterfall is the fixed provider priority order. Cheaper providers with
// better hit rates on generic contacts come first; the order encodes a
// cost/accuracy trade-off and is not configurable per call (use
// LookupRequest.Skip to exclude providers for a single lookup).
var Waterfall = []Source{
	SourceHunter,
	SourceDropcontact,
	SourceSnov,
	SourceProspeo,
	SourceTomba,
	SourceFindymail,
	SourceAnymailfinder,
	SourceRocketReach,
}

// LookupRequest is one person-email lookup. FirstName and LastName are
// required, and at least one of Domain or Company must be set.
type LookupRequest struct {
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Domain      string   `json:"domain,omitempty"`
	Company     string   `json:"company,omitempty"`
	LinkedInURL string   `json:"linkedin_url,omitempty"`
	Skip        []Source `json:"skip,omitempty"`

	// Optional CRM handles used by the batch integrations.
	SalesforceContactID string `json:"salesforce_contact_id,omitempty"`
	NotionPageID        string `json:"notion_page_id,omitempty"`
}

// SkipSet returns the skip list as a set for O(1) membership checks.
func (r LookupRequest) SkipSet() map[Source]bool {
	if len(r.Skip) == 0 {
		return nil
	}
	set := make(map[Source]bool, len(r.Skip))
	for _, s := range r.Skip {
		set[s] = true
	}
	return set
}

// EnrichmentResult is the uniform contract returned to every caller,
// regardless of which provider answered. It is constructed exactly once per
// lookup and never mutated after return.
type EnrichmentResult struct {
	Email      string  `json:"email,omitempty"`
	Source     Source  `json:"source"`
	Confidence float64 `json:"confidence"`
	Verified   bool    `json:"is_verified"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`

	// ServicesTried lists the providers actually invoked for this call,
	// in invocation order.
	ServicesTried []Source `json:"services_tried,omitempty"`
	// TotalCost is the sum of per-provider unit costs consumed.
	TotalCost  float64 `json:"total_cost"`
	DurationMs int64   `json:"duration_ms"`
	// RawResponses maps provider name to its raw or partial response, kept
	// for audit.
	RawResponses map[string]string `json:"raw_responses,omitempty"`
}

// Found reports whether the lookup produced an email address.
func (r EnrichmentResult) Found() bool {
	return r.Email != "" && r.Source != SourceNotFound
}

// HighConfidence reports whether the result confidence is at least 0.8.
func (r EnrichmentResult) HighConfidence() bool {
	return r.Confidence >= 0.8
}

// ServiceStats holds per-provider counters for the orchestrator lifetime.
type ServiceStats struct {
	Requests     int     `json:"requests"`
	Successes    int     `json:"successes"`
	Failures     int     `json:"failures"`
	TotalCost    float64 `json:"total_cost"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// SuccessRate returns successes/requests, or 0 if no requests were made.
func (s ServiceStats) SuccessRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Requests)
}

// WaterfallStats aggregates counters across all providers.
type WaterfallStats struct {
	TotalRequests int                      `json:"total_requests"`
	TotalFound    int                      `json:"total_found"`
	TotalNotFound int                      `json:"total_not_found"`
	TotalCost     float64                  `json:"total_cost"`
	CacheHits     int                      `json:"cache_hits"`
	Services      map[string]*ServiceStats `json:"services"`
}

// OverallSuccessRate returns found/requests, or 0 if no requests were made.
func (s WaterfallStats) OverallSuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.TotalFound) / float64(s.TotalRequests)
}

// ServiceHealth is one provider's health probe outcome.
type ServiceHealth struct {
	Healthy    bool   `json:"healthy"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// HealthReport rolls per-provider health into one status. Healthy is true
// only when every configured provider reports healthy.
type HealthReport struct {
	Healthy  bool                     `json:"healthy"`
	Services map[string]ServiceHealth `json:"services"`
}
