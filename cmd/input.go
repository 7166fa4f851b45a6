package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospect-cli/internal/model"
)

// readRequests loads lookup requests from a .csv or .xlsx file. The first
// row must be a header; column names are matched case-insensitively with
// spaces treated as underscores.
func readRequests(path string) ([]model.LookupRequest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readRequestsCSV(path)
	case ".xlsx":
		return readRequestsXLSX(path)
	default:
		return nil, eris.Errorf("unsupported input format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func readRequestsCSV(path string) ([]model.LookupRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open csv %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("csv has no data rows")
	}

	return rowsToRequests(records[0], records[1:]), nil
}

func readRequestsXLSX(path string) ([]model.LookupRequest, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open xlsx %s", path)
	}
	if len(file.Sheets) == 0 {
		return nil, eris.New("xlsx has no sheets")
	}

	sheet := file.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, eris.New("xlsx has no data rows")
	}

	header := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		header[i] = cell.String()
	}

	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		fields := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			fields[i] = cell.String()
		}
		rows = append(rows, fields)
	}

	return rowsToRequests(header, rows), nil
}

// rowsToRequests maps header+rows into lookup requests. Rows with no name
// at all are dropped; partially filled rows stay so the batch runner can
// report them individually.
func rowsToRequests(header []string, rows [][]string) []model.LookupRequest {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[normalizeHeader(h)] = i
	}

	field := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := col[name]; ok && i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	var reqs []model.LookupRequest
	for _, row := range rows {
		req := model.LookupRequest{
			FirstName:   field(row, "first_name", "first"),
			LastName:    field(row, "last_name", "last"),
			Domain:      field(row, "domain", "website"),
			Company:     field(row, "company", "company_name"),
			LinkedInURL: field(row, "linkedin_url", "linkedin"),
		}
		if req.FirstName == "" && req.LastName == "" {
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// writeResultsCSV writes batch results with one row per input request.
func writeResultsCSV(path string, results []model.EnrichmentResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create output %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"first_name", "last_name", "domain", "company",
		"email", "source", "confidence", "verified", "phone",
		"total_cost", "duration_ms",
	}); err != nil {
		return eris.Wrap(err, "write csv header")
	}

	for _, r := range results {
		row := []string{
			r.FirstName, r.LastName, r.Domain, r.Company,
			r.Email, string(r.Source),
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
			strconv.FormatBool(r.Verified),
			r.Phone,
			strconv.FormatFloat(r.TotalCost, 'f', 4, 64),
			strconv.FormatInt(r.DurationMs, 10),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write csv row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "flush csv")
	}
	return nil
}

// printStatsSummary writes a human-readable run summary to stdout.
func printStatsSummary(stats model.WaterfallStats, results []model.EnrichmentResult) {
	found := 0
	for _, r := range results {
		if r.Found() {
			found++
		}
	}

	fmt.Printf("\nProcessed %d lookups: %d found, %d not found (%.0f%% hit rate)\n",
		len(results), found, len(results)-found,
		percent(found, len(results)))
	fmt.Printf("Cache hits: %d, total spend: $%.4f\n", stats.CacheHits, stats.TotalCost)

	for _, source := range model.Waterfall {
		svc, ok := stats.Services[string(source)]
		if !ok || svc.Requests == 0 {
			continue
		}
		fmt.Printf("  %-14s %4d calls, %3d hits, %3d errors, $%.4f, avg %.0fms\n",
			source, svc.Requests, svc.Successes, svc.Failures, svc.TotalCost, svc.AvgLatencyMs)
	}
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
