package pricing

import (
	"parsearena/internal/domain"
)

// Resolution is a resolved pricing entry for a provider and selection.
type Resolution struct {
	Provider       domain.ProviderID
	Label          string
	CreditsPerPage float64
	USDPerCredit   float64
}

// Resolver matches runtime selections against the static pricing table.
// It never fabricates a price outside the table.
type Resolver struct {
	table Table
}

// NewResolver wraps a loaded pricing table.
func NewResolver(table Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve finds the pricing entry for a provider and selector. Matching is
// an exact field match over the provider's recognized key set; when no entry
// matches it falls back to the provider's declared default entry. An unknown
// provider or a selection with no match and no default yields
// domain.ErrPricingUnavailable.
func (r *Resolver) Resolve(id domain.ProviderID, selector map[string]string) (*Resolution, error) {
	pt, ok := r.table[id]
	if !ok {
		return nil, domain.ErrPricingUnavailable
	}

	var fallback *Entry
	for i := range pt.Entries {
		e := &pt.Entries[i]
		if e.Default && fallback == nil {
			fallback = e
		}
		if matches(pt.Keys, e.Selector, selector) {
			return resolution(id, pt, e), nil
		}
	}
	if fallback != nil {
		return resolution(id, pt, fallback), nil
	}
	return nil, domain.ErrPricingUnavailable
}

func resolution(id domain.ProviderID, pt ProviderTable, e *Entry) *Resolution {
	return &Resolution{
		Provider:       id,
		Label:          e.Label,
		CreditsPerPage: e.CreditsPerPage,
		USDPerCredit:   pt.USDPerCredit,
	}
}

// matches reports whether candidate agrees with the entry selector on every
// recognized key. Keys absent from both sides agree trivially.
func matches(keys []string, entry, candidate map[string]string) bool {
	for _, k := range keys {
		if entry[k] != candidate[k] {
			return false
		}
	}
	return true
}
