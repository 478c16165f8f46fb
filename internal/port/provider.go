package port

import (
	"context"

	"parsearena/internal/domain"
)

// ParseInput carries the data handed to a provider adapter for one call.
type ParseInput struct {
	Document *domain.Document
	Mode     domain.ParseMode
	// PageNumber is the 1-indexed page to parse when Mode is ModeSinglePage.
	PageNumber int
	// Options is the provider's own variant of the request configuration,
	// or nil when the caller did not set one.
	Options domain.ProviderOptions
}

// Provider abstracts one external document-parsing service. Implementations
// must be safe for concurrent use across unrelated jobs and must honor the
// deadline on ctx; failures are classified with provider.Error.
type Provider interface {
	ID() domain.ProviderID
	Parse(ctx context.Context, input ParseInput) (*domain.ProviderOutcome, error)
}
