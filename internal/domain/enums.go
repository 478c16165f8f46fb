package domain

// ProviderID identifies one of the supported parsing providers.
type ProviderID string

const (
	ProviderLlamaIndex   ProviderID = "llamaindex"
	ProviderReducto      ProviderID = "reducto"
	ProviderLandingAI    ProviderID = "landingai"
	ProviderExtendAI     ProviderID = "extendai"
	ProviderUnstructured ProviderID = "unstructured"
)

// KnownProviders lists every supported provider in display order.
var KnownProviders = []ProviderID{
	ProviderLlamaIndex,
	ProviderReducto,
	ProviderLandingAI,
	ProviderExtendAI,
	ProviderUnstructured,
}

// IsKnownProvider reports whether id names a supported provider.
func IsKnownProvider(id ProviderID) bool {
	for _, p := range KnownProviders {
		if p == id {
			return true
		}
	}
	return false
}

// OutcomeStatus is the lifecycle status of one provider within a job.
type OutcomeStatus string

const (
	OutcomePending OutcomeStatus = "pending"
	OutcomeRunning OutcomeStatus = "running"
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
)

// IsTerminal reports whether the status can no longer change.
func (s OutcomeStatus) IsTerminal() bool {
	return s == OutcomeSuccess || s == OutcomeError
}

// ParseMode selects the page scope of a job.
type ParseMode string

const (
	ModeSinglePage   ParseMode = "single_page"
	ModeFullDocument ParseMode = "full_document"
)

// BattleStatus is the persisted parse outcome of a battle run: success when
// at least one contestant produced output, error when both failed. Whether a
// battle has been revealed is derived from feedback presence, not status.
type BattleStatus string

const (
	BattleSuccess BattleStatus = "success"
	BattleError   BattleStatus = "error"
)

// BlindLabel hides a provider behind an anonymous letter until reveal.
type BlindLabel string

const (
	LabelA BlindLabel = "A"
	LabelB BlindLabel = "B"
)

// BlindLabels lists the two labels in presentation order.
var BlindLabels = []BlindLabel{LabelA, LabelB}

// PreferredLabel is one element of a feedback verdict.
type PreferredLabel string

const (
	PreferA    PreferredLabel = "A"
	PreferB    PreferredLabel = "B"
	PreferTie  PreferredLabel = "tie"
	PreferNone PreferredLabel = "none"
)

// ValidPreferredLabel reports whether l is an accepted verdict element.
func ValidPreferredLabel(l PreferredLabel) bool {
	switch l {
	case PreferA, PreferB, PreferTie, PreferNone:
		return true
	}
	return false
}
