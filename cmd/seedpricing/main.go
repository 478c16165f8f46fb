// Command seedpricing converts a provider pricing Excel workbook into the
// YAML pricing table the server loads at startup. The workbook carries one
// sheet per provider with columns: label, selector (k=v pairs separated by
// ";"), credits_per_page, default. Cell A1 of each sheet holds the provider's
// usd_per_credit.
// Usage: go run ./cmd/seedpricing <workbook.xlsx>
// Output: config/pricing.yaml
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"parsearena/internal/domain"
	"parsearena/internal/pricing"
)

const outPath = "config/pricing.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: seedpricing <workbook.xlsx>")
	}

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	table := pricing.Table{}
	for _, sheet := range f.GetSheetList() {
		id := domain.ProviderID(strings.ToLower(strings.TrimSpace(sheet)))
		if !domain.IsKnownProvider(id) {
			log.Printf("skipping sheet %q: not a known provider", sheet)
			continue
		}
		pt, err := parseSheet(f, sheet)
		if err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
		table[id] = pt
		log.Printf("sheet %s: %d entries, %.6f usd/credit", sheet, len(pt.Entries), pt.USDPerCredit)
	}

	if len(table) == 0 {
		return fmt.Errorf("workbook contains no provider sheets")
	}

	raw, err := yaml.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	if err := os.WriteFile(outPath, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	log.Printf("wrote %d providers to %s", len(table), outPath)
	return nil
}

// parseSheet reads one provider sheet. Row 1 is "usd_per_credit <value>",
// row 2 is the entry header, rows 3+ are entries.
func parseSheet(f *excelize.File, sheet string) (pricing.ProviderTable, error) {
	var pt pricing.ProviderTable

	rows, err := f.GetRows(sheet)
	if err != nil {
		return pt, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 3 {
		return pt, fmt.Errorf("expected usd_per_credit row, header, and at least one entry")
	}

	if len(rows[0]) < 2 {
		return pt, fmt.Errorf("row 1 must hold usd_per_credit and its value")
	}
	usd, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64)
	if err != nil || usd <= 0 {
		return pt, fmt.Errorf("invalid usd_per_credit %q", rows[0][1])
	}
	pt.USDPerCredit = usd

	keys := map[string]bool{}
	for _, row := range rows[2:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		entry, err := parseEntry(row)
		if err != nil {
			return pt, fmt.Errorf("entry %q: %w", row[0], err)
		}
		for k := range entry.Selector {
			if !keys[k] {
				keys[k] = true
				pt.Keys = append(pt.Keys, k)
			}
		}
		pt.Entries = append(pt.Entries, entry)
	}
	if len(pt.Entries) == 0 {
		return pt, fmt.Errorf("no entries")
	}
	return pt, nil
}

func parseEntry(row []string) (pricing.Entry, error) {
	entry := pricing.Entry{
		Label:    strings.TrimSpace(row[0]),
		Selector: map[string]string{},
	}

	if len(row) > 1 {
		for _, pair := range strings.Split(row[1], ";") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return entry, fmt.Errorf("selector pair %q is not k=v", pair)
			}
			entry.Selector[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	if len(row) < 3 {
		return entry, fmt.Errorf("missing credits_per_page")
	}
	credits, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil || credits <= 0 {
		return entry, fmt.Errorf("invalid credits_per_page %q", row[2])
	}
	entry.CreditsPerPage = credits

	if len(row) > 3 {
		entry.Default = strings.EqualFold(strings.TrimSpace(row[3]), "yes") ||
			strings.EqualFold(strings.TrimSpace(row[3]), "true")
	}
	return entry, nil
}
