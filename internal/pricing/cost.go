package pricing

import (
	"parsearena/internal/domain"
)

// Cost derives a cost breakdown for one provider's parse. It is a pure
// function of the table contents, the selection, and the page count, and is
// never cached against a job identity. An unresolvable selection produces an
// explicit unavailable breakdown rather than a guessed number.
func (r *Resolver) Cost(id domain.ProviderID, selector map[string]string, pages int) domain.CostBreakdown {
	res, err := r.Resolve(id, selector)
	if err != nil {
		return domain.CostBreakdown{Provider: id, Available: false}
	}

	totalCredits := float64(pages) * res.CreditsPerPage
	return domain.CostBreakdown{
		Provider:       id,
		Available:      true,
		DisplayLabel:   res.Label,
		CreditsPerPage: res.CreditsPerPage,
		TotalCredits:   totalCredits,
		USDPerCredit:   res.USDPerCredit,
		TotalUSD:       totalCredits * res.USDPerCredit,
	}
}
