package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// Prospect is one row of the prospects database waiting for enrichment.
type Prospect struct {
	PageID      string
	FirstName   string
	LastName    string
	Domain      string
	Company     string
	LinkedInURL string
}

// Expected property names in the prospects database.
const (
	propFirstName = "First Name"
	propLastName  = "Last Name"
	propDomain    = "Domain"
	propCompany   = "Company"
	propLinkedIn  = "LinkedIn"
	propEmail     = "Email"
	propStatus    = "Status"
	propSource    = "Source"
)

// QueryAll fetches all pages from a Notion database, handling pagination.
// Rate limiting is enforced by the Client (3 req/s by default).
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		req = &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			req.PageSize = filter.PageSize
		}
	}

	return all, nil
}

// QueryQueuedProspects fetches all rows with Status = "Queued" and parses
// them into lookup-ready prospects. Rows without both name halves are
// dropped; the lookup would fail validation anyway.
func QueryQueuedProspects(ctx context.Context, c Client, dbID string) ([]Prospect, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: propStatus,
			Status: &notionapi.StatusFilterCondition{
				Equals: "Queued",
			},
		},
	}
	pages, err := QueryAll(ctx, c, dbID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "notion: query queued prospects")
	}

	prospects := make([]Prospect, 0, len(pages))
	for _, page := range pages {
		p := ParseProspect(page)
		if p.FirstName == "" || p.LastName == "" {
			continue
		}
		prospects = append(prospects, p)
	}
	return prospects, nil
}

// ParseProspect extracts the lookup fields from a prospects database page.
func ParseProspect(page notionapi.Page) Prospect {
	return Prospect{
		PageID:      string(page.ID),
		FirstName:   plainText(page.Properties[propFirstName]),
		LastName:    plainText(page.Properties[propLastName]),
		Domain:      plainText(page.Properties[propDomain]),
		Company:     plainText(page.Properties[propCompany]),
		LinkedInURL: plainText(page.Properties[propLinkedIn]),
	}
}

// MarkEnriched writes the found email back to a prospect row and flips its
// status to Enriched, recording which provider answered.
func MarkEnriched(ctx context.Context, c Client, pageID, email, source string) error {
	req := &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			propEmail: notionapi.EmailProperty{
				Type:  notionapi.PropertyTypeEmail,
				Email: email,
			},
			propStatus: notionapi.StatusProperty{
				Type:   notionapi.PropertyTypeStatus,
				Status: notionapi.Option{Name: "Enriched"},
			},
			propSource: notionapi.RichTextProperty{
				Type: notionapi.PropertyTypeRichText,
				RichText: []notionapi.RichText{
					{Text: &notionapi.Text{Content: source}},
				},
			},
		},
	}
	if _, err := c.UpdatePage(ctx, pageID, req); err != nil {
		return eris.Wrap(err, "notion: mark enriched")
	}
	return nil
}

// MarkNotFound flips a prospect row's status to Not Found so it leaves the
// queue instead of being retried every run.
func MarkNotFound(ctx context.Context, c Client, pageID string) error {
	req := &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			propStatus: notionapi.StatusProperty{
				Type:   notionapi.PropertyTypeStatus,
				Status: notionapi.Option{Name: "Not Found"},
			},
		},
	}
	if _, err := c.UpdatePage(ctx, pageID, req); err != nil {
		return eris.Wrap(err, "notion: mark not found")
	}
	return nil
}

// plainText flattens a Notion property into its text content. Title, rich
// text, URL, and email properties are supported; anything else is empty.
func plainText(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return joinRichText(p.Title)
	case *notionapi.RichTextProperty:
		return joinRichText(p.RichText)
	case *notionapi.URLProperty:
		return p.URL
	case *notionapi.EmailProperty:
		return p.Email
	default:
		return ""
	}
}

func joinRichText(parts []notionapi.RichText) string {
	var out string
	for _, part := range parts {
		out += part.PlainText
	}
	return out
}
