package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	notionpkg "github.com/sells-group/prospect-cli/pkg/notion"
	sfpkg "github.com/sells-group/prospect-cli/pkg/salesforce"
)

var batchFlags struct {
	input          string
	output         string
	concurrency    int
	limit          int
	fromNotion     bool
	syncSalesforce bool
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich a batch of prospects from a file, Notion, or Salesforce",
	Long: `Batch runs the waterfall over many prospects at once.

Input comes from one of three places:
  --input file.csv|file.xlsx   a local spreadsheet
  --from-notion                the Queued rows of the Notion prospects database
  --sync-salesforce            Salesforce contacts that are missing an email

Found emails are written back to the source (Notion page or Salesforce
contact) and optionally to --output as CSV.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchFlags.input, "input", "i", "", "input .csv or .xlsx file")
	batchCmd.Flags().StringVarP(&batchFlags.output, "output", "o", "", "write results to this CSV file")
	batchCmd.Flags().IntVarP(&batchFlags.concurrency, "concurrency", "c", 0, "parallel lookups (default from config)")
	batchCmd.Flags().IntVar(&batchFlags.limit, "limit", 100, "max contacts to pull with --sync-salesforce")
	batchCmd.Flags().BoolVar(&batchFlags.fromNotion, "from-notion", false, "read prospects from the Notion database")
	batchCmd.Flags().BoolVar(&batchFlags.syncSalesforce, "sync-salesforce", false, "read contacts missing email from Salesforce and write results back")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources := 0
	for _, on := range []bool{batchFlags.input != "", batchFlags.fromNotion, batchFlags.syncSalesforce} {
		if on {
			sources++
		}
	}
	if sources != 1 {
		return eris.New("exactly one of --input, --from-notion, or --sync-salesforce is required")
	}

	engine, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	var (
		reqs     []model.LookupRequest
		notion   notionpkg.Client
		sfClient sfpkg.Client
	)

	switch {
	case batchFlags.input != "":
		reqs, err = readRequests(batchFlags.input)
	case batchFlags.fromNotion:
		notion, reqs, err = notionRequests(ctx)
	case batchFlags.syncSalesforce:
		sfClient, reqs, err = salesforceRequests(ctx)
	}
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Println("Nothing to enrich.")
		return nil
	}

	concurrency := batchFlags.concurrency
	if concurrency == 0 {
		concurrency = cfg.Batch.Concurrency
	}
	zap.L().Info("starting batch",
		zap.Int("requests", len(reqs)),
		zap.Int("concurrency", concurrency))

	results := engine.FindEmailsBatch(ctx, reqs, concurrency)

	if notion != nil {
		if err := writeBackNotion(ctx, notion, reqs, results); err != nil {
			return err
		}
	}
	if sfClient != nil {
		if err := writeBackSalesforce(ctx, sfClient, reqs, results); err != nil {
			return err
		}
	}

	if batchFlags.output != "" {
		if err := writeResultsCSV(batchFlags.output, results); err != nil {
			return err
		}
		fmt.Printf("Wrote %d results to %s\n", len(results), batchFlags.output)
	}

	printStatsSummary(engine.Stats(), results)
	return nil
}

// notionRequests pulls Queued prospects from the configured Notion database.
func notionRequests(ctx context.Context) (notionpkg.Client, []model.LookupRequest, error) {
	if cfg.Notion.Token == "" || cfg.Notion.ProspectsDB == "" {
		return nil, nil, eris.New("notion token and prospects_db are required for --from-notion")
	}

	client := notionpkg.NewClient(cfg.Notion.Token)
	prospects, err := notionpkg.QueryQueuedProspects(ctx, client, cfg.Notion.ProspectsDB)
	if err != nil {
		return nil, nil, err
	}

	reqs := make([]model.LookupRequest, 0, len(prospects))
	for _, p := range prospects {
		reqs = append(reqs, model.LookupRequest{
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			Domain:       p.Domain,
			Company:      p.Company,
			LinkedInURL:  p.LinkedInURL,
			NotionPageID: p.PageID,
		})
	}
	return client, reqs, nil
}

// salesforceRequests pulls contacts missing an email, deriving the lookup
// domain from the parent account's website.
func salesforceRequests(ctx context.Context) (sfpkg.Client, []model.LookupRequest, error) {
	client, err := initSalesforce()
	if err != nil {
		return nil, nil, err
	}

	contacts, err := sfpkg.QueryContactsMissingEmail(ctx, client, batchFlags.limit)
	if err != nil {
		return nil, nil, err
	}

	reqs := make([]model.LookupRequest, 0, len(contacts))
	for _, c := range contacts {
		reqs = append(reqs, model.LookupRequest{
			FirstName:           c.FirstName,
			LastName:            c.LastName,
			Domain:              domainFromWebsite(c.Account.Website),
			Company:             c.Account.Name,
			SalesforceContactID: c.ID,
		})
	}
	return client, reqs, nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (ENRICH_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

func writeBackNotion(ctx context.Context, client notionpkg.Client, reqs []model.LookupRequest, results []model.EnrichmentResult) error {
	for i, res := range results {
		pageID := reqs[i].NotionPageID
		if pageID == "" {
			continue
		}
		var err error
		if res.Found() {
			err = notionpkg.MarkEnriched(ctx, client, pageID, res.Email, string(res.Source))
		} else {
			err = notionpkg.MarkNotFound(ctx, client, pageID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeBackSalesforce(ctx context.Context, client sfpkg.Client, reqs []model.LookupRequest, results []model.EnrichmentResult) error {
	var updates []sfpkg.EmailUpdate
	for i, res := range results {
		if reqs[i].SalesforceContactID == "" || !res.Found() {
			continue
		}
		updates = append(updates, sfpkg.EmailUpdate{
			ContactID: reqs[i].SalesforceContactID,
			Email:     res.Email,
		})
	}
	if len(updates) == 0 {
		return nil
	}

	outcomes, err := sfpkg.BulkUpdateContactEmails(ctx, client, updates)
	if err != nil {
		return err
	}
	failed := 0
	for _, o := range outcomes {
		if !o.Success {
			failed++
			zap.L().Warn("salesforce update failed", zap.String("id", o.ID))
		}
	}
	fmt.Printf("Salesforce: updated %d contacts (%d failed)\n", len(updates)-failed, failed)
	return nil
}

// domainFromWebsite extracts a bare domain from an account website value,
// which in practice shows up with or without a scheme.
func domainFromWebsite(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
