package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is the resolved content behind a stable document reference.
type Document struct {
	Ref          string `json:"ref"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	PageCount    int    `json:"page_count"`
	Bytes        []byte `json:"-"`
}

// ParseJob describes one comparison request: a document, a non-empty set of
// providers, their options, and the page scope to parse.
type ParseJob struct {
	ID              uuid.UUID
	DocumentRef     string
	Providers       []ProviderID
	Options         ParseOptions
	Mode            ParseMode
	PageNumber      int // 1-indexed, meaningful only for ModeSinglePage
	ProviderTimeout time.Duration
}

// Validate rejects malformed jobs before anything is dispatched.
func (j *ParseJob) Validate() error {
	if len(j.Providers) == 0 {
		return ErrNoProvidersSelected
	}
	seen := make(map[ProviderID]struct{}, len(j.Providers))
	for _, p := range j.Providers {
		if !IsKnownProvider(p) {
			return ErrUnknownProvider
		}
		if _, dup := seen[p]; dup {
			return ErrDuplicateProvider
		}
		seen[p] = struct{}{}
	}
	if j.ProviderTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if j.Mode == ModeSinglePage && j.PageNumber < 1 {
		return ErrInvalidPageScope
	}
	return j.Options.Validate()
}

// PageResult is one parsed page of a provider's output.
type PageResult struct {
	PageNumber int            `json:"page_number"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Usage carries the billing-relevant figures a provider reported for a call.
type Usage struct {
	Pages   int               `json:"pages"`
	Credits float64           `json:"credits,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// OutcomeFailure is the classified failure captured inline in an outcome.
type OutcomeFailure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ProviderOutcome is the terminal result of one provider within a job.
// A failed provider stays in the result set with Status == OutcomeError;
// it is never removed.
type ProviderOutcome struct {
	Provider ProviderID      `json:"provider"`
	Status   OutcomeStatus   `json:"status"`
	Pages    []PageResult    `json:"pages,omitempty"`
	Usage    Usage           `json:"usage"`
	Duration time.Duration   `json:"duration"`
	Error    *OutcomeFailure `json:"error,omitempty"`
}

// ParseResultSet maps each requested provider to its terminal outcome.
// It always contains exactly one entry per requested provider.
type ParseResultSet map[ProviderID]*ProviderOutcome

// CostBreakdown is the derived cost of one provider's parse. It is computed
// on demand and never persisted as a source of truth. When the pricing table
// has no entry for the selection, Available is false and every figure is zero.
type CostBreakdown struct {
	Provider       ProviderID `json:"provider"`
	Available      bool       `json:"available"`
	DisplayLabel   string     `json:"display_label,omitempty"`
	CreditsPerPage float64    `json:"credits_per_page"`
	TotalCredits   float64    `json:"total_credits"`
	USDPerCredit   float64    `json:"usd_per_credit"`
	TotalUSD       float64    `json:"total_usd"`
}

// BattleAssignment maps a blind label to the provider hidden behind it.
type BattleAssignment struct {
	Label    BlindLabel `json:"label"`
	Provider ProviderID `json:"provider"`
}

// BattleRun is the durable record of one blind two-provider comparison.
type BattleRun struct {
	ID           uuid.UUID    `db:"id" json:"battle_id"`
	DocumentRef  string       `db:"document_ref" json:"document_ref"`
	OriginalName string       `db:"original_name" json:"original_name"`
	PageNumber   int          `db:"page_number" json:"page_number"`
	Status       BattleStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// BattleResult is one blind-labeled provider row of a battle run.
type BattleResult struct {
	ID          uuid.UUID     `db:"id" json:"-"`
	BattleID    uuid.UUID     `db:"battle_id" json:"-"`
	Provider    ProviderID    `db:"provider" json:"provider"`
	Label       BlindLabel    `db:"label" json:"label"`
	Status      OutcomeStatus `db:"status" json:"status"`
	Content     []byte        `db:"content" json:"-"` // JSON-encoded pages + usage
	CostCredits *float64      `db:"cost_credits" json:"cost_credits,omitempty"`
	CostUSD     *float64      `db:"cost_usd" json:"cost_usd,omitempty"`
	DurationMS  int64         `db:"duration_ms" json:"duration_ms"`
}

// BattleFeedback is the append-once user verdict that reveals a battle.
type BattleFeedback struct {
	BattleID        uuid.UUID        `db:"battle_id" json:"battle_id"`
	PreferredLabels []PreferredLabel `db:"-" json:"preferred_labels"`
	Comment         string           `db:"comment" json:"comment,omitempty"`
	RevealedAt      time.Time        `db:"revealed_at" json:"revealed_at"`
}

// ValidatePreferredLabels rejects feedback whose preference set holds
// anything outside A, B, tie, none.
func ValidatePreferredLabels(labels []PreferredLabel) error {
	for _, l := range labels {
		if !ValidPreferredLabel(l) {
			return ErrInvalidPreference
		}
	}
	return nil
}

// Winner resolves the revealed preference of a feedback against the
// label assignments. It returns the winning provider id, or "tie"/"none"
// when the verdict was not a single label.
func Winner(labels []PreferredLabel, assignments []BattleAssignment) string {
	if len(labels) == 1 {
		switch labels[0] {
		case PreferTie:
			return "tie"
		case PreferNone:
			return "none"
		default:
			for _, a := range assignments {
				if BlindLabel(labels[0]) == a.Label {
					return string(a.Provider)
				}
			}
		}
	}
	if len(labels) == 0 {
		return "none"
	}
	return "tie"
}
