package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"parsearena/internal/domain"
)

// Entry is one selectable pricing row of a provider's table.
type Entry struct {
	Label          string            `yaml:"label"`
	Selector       map[string]string `yaml:"selector"`
	CreditsPerPage float64           `yaml:"credits_per_page"`
	Default        bool              `yaml:"default"`
}

// ProviderTable holds a provider's credit pricing. Keys names the selector
// fields the provider recognizes; selector fields outside this set are
// ignored during matching.
type ProviderTable struct {
	USDPerCredit float64  `yaml:"usd_per_credit"`
	Keys         []string `yaml:"keys"`
	Entries      []Entry  `yaml:"entries"`
}

// Table is the static pricing table, provider id -> pricing. It is loaded
// once at process start and read-only afterwards.
type Table map[domain.ProviderID]ProviderTable

// LoadTable reads and validates the pricing table from a YAML file.
func LoadTable(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pricing table %s: %w", path, err)
	}
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parsing pricing table %s: %w", path, err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("pricing table %s: %w", path, err)
	}
	return t, nil
}

func (t Table) validate() error {
	for id, pt := range t {
		if pt.USDPerCredit <= 0 {
			return fmt.Errorf("provider %s: usd_per_credit must be positive", id)
		}
		if len(pt.Entries) == 0 {
			return fmt.Errorf("provider %s: no pricing entries", id)
		}
		defaults := 0
		for i, e := range pt.Entries {
			if e.CreditsPerPage <= 0 {
				return fmt.Errorf("provider %s entry %d: credits_per_page must be positive", id, i)
			}
			if e.Default {
				defaults++
			}
		}
		if defaults > 1 {
			return fmt.Errorf("provider %s: more than one default entry", id)
		}
	}
	return nil
}
