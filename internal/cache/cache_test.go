package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyCaseInsensitive(t *testing.T) {
	t.Parallel()

	a := Key("John", "Smith", "company.com", "")
	b := Key("john", "SMITH", "Company.com", "")
	assert.Equal(t, a, b)
}

func TestKeyTrimsWhitespace(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		Key("John", "Smith", "company.com", ""),
		Key("  John ", " Smith", " company.com ", ""),
	)
}

func TestKeyFoldsDiacritics(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		Key("Jose", "Garcia", "acme.fr", ""),
		Key("José", "García", "acme.fr", ""),
	)
}

func TestKeyDomainPreferredOverCompany(t *testing.T) {
	t.Parallel()

	withBoth := Key("John", "Smith", "company.com", "Company Inc")
	domainOnly := Key("John", "Smith", "company.com", "")
	assert.Equal(t, domainOnly, withBoth)
}

func TestKeyDomainAndCompanyNamespacesDiffer(t *testing.T) {
	t.Parallel()

	byDomain := Key("John", "Smith", "acme", "")
	byCompany := Key("John", "Smith", "", "acme")
	assert.NotEqual(t, byDomain, byCompany)
}
