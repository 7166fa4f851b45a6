package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Contact is a Salesforce Contact with the account fields the enrichment
// lookup keys on.
type Contact struct {
	ID        string  `json:"Id"`
	FirstName string  `json:"FirstName"`
	LastName  string  `json:"LastName"`
	Email     string  `json:"Email"`
	Account   Account `json:"Account"`
}

// Account carries the parent account fields selected alongside a contact.
type Account struct {
	Name    string `json:"Name"`
	Website string `json:"Website"`
}

// EmailUpdate pairs a contact id with its newly found address.
type EmailUpdate struct {
	ContactID string
	Email     string
}

// QueryContactsMissingEmail returns contacts that have a name but no email,
// with the parent account's name and website for the domain lookup.
func QueryContactsMissingEmail(ctx context.Context, c Client, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = maxBatchSize
	}
	soql := fmt.Sprintf(
		"SELECT Id, FirstName, LastName, Email, Account.Name, Account.Website "+
			"FROM Contact WHERE Email = null AND FirstName != null AND LastName != null "+
			"AND AccountId != null LIMIT %d", limit)

	var contacts []Contact
	if err := c.Query(ctx, soql, &contacts); err != nil {
		return nil, eris.Wrap(err, "sf: query contacts missing email")
	}
	return contacts, nil
}

// UpdateContactEmail writes a found address back to a single contact.
func UpdateContactEmail(ctx context.Context, c Client, contactID, email string) error {
	if contactID == "" {
		return eris.New("sf: contact id is required")
	}
	if email == "" {
		return eris.New("sf: email is required")
	}
	if err := c.UpdateOne(ctx, "Contact", contactID, map[string]any{"Email": email}); err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: update contact email %s", contactID))
	}
	return nil
}

// BulkUpdateContactEmails writes found addresses back in batches of 200
// (SF Collections API limit) and returns the per-record outcomes.
func BulkUpdateContactEmails(ctx context.Context, c Client, updates []EmailUpdate) ([]CollectionResult, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	var allResults []CollectionResult
	for start := 0; start < len(updates); start += maxBatchSize {
		end := min(start+maxBatchSize, len(updates))

		records := make([]CollectionRecord, 0, end-start)
		for _, u := range updates[start:end] {
			records = append(records, CollectionRecord{
				ID:     u.ContactID,
				Fields: map[string]any{"Email": u.Email},
			})
		}

		results, err := c.UpdateCollection(ctx, "Contact", records)
		if err != nil {
			return allResults, eris.Wrap(err, "sf: bulk update contact emails")
		}
		allResults = append(allResults, results...)
	}
	return allResults, nil
}

// EscapeSoql escapes single quotes in SOQL string literals to prevent injection.
func EscapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
