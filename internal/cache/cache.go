// Package cache stores enrichment results keyed by normalized person +
// company identity, with a bounded lifetime. Only found results are stored;
// failed lookups are never cached so retries can benefit from fixed
// credentials or lifted rate limits.
package cache

import (
	"context"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Store is the persistence interface for cached lookup results. Get returns
// (nil, nil) when the key is absent or the entry has expired; expired entries
// may be evicted on read.
type Store interface {
	Get(ctx context.Context, key string) (*model.EnrichmentResult, error)
	Set(ctx context.Context, key string, result *model.EnrichmentResult, ttl time.Duration) error
	Clear(ctx context.Context) error
	DeleteExpired(ctx context.Context) (int, error)
	Close() error
}

// Key builds the normalized cache key for a lookup. Names and the company
// identifier are lowercased, trimmed, and diacritic-folded, so "José" and
// "Jose" collide. Domain is preferred over company when both are present,
// and the two are prefixed differently so a domain key never collides with a
// company key of the same text.
func Key(firstName, lastName, domain, company string) string {
	org := "c:" + normalize(company)
	if strings.TrimSpace(domain) != "" {
		org = "d:" + normalize(domain)
	}
	return normalize(firstName) + "|" + normalize(lastName) + "|" + org
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Fold diacritics: decompose, drop combining marks, recompose.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return s
}
