package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"parsearena/internal/domain"
	"parsearena/internal/orchestrator"
	"parsearena/internal/port"
	"parsearena/internal/pricing"
)

// CompareInput is the DTO for running one comparison job.
type CompareInput struct {
	DocumentRef string
	Providers   []domain.ProviderID
	Options     domain.ParseOptions
	Mode        domain.ParseMode
	PageNumber  int
	TimeoutSecs int
}

func (in *CompareInput) job() *domain.ParseJob {
	mode := in.Mode
	if mode == "" {
		mode = domain.ModeSinglePage
	}
	return &domain.ParseJob{
		ID:              uuid.New(),
		DocumentRef:     in.DocumentRef,
		Providers:       in.Providers,
		Options:         in.Options,
		Mode:            mode,
		PageNumber:      in.PageNumber,
		ProviderTimeout: time.Duration(in.TimeoutSecs) * time.Second,
	}
}

// CostInput is the DTO for a standalone cost estimate.
type CostInput struct {
	Providers []domain.ProviderID
	Options   domain.ParseOptions
	Pages     int
}

// CompareOutput is the terminal view of a comparison job.
type CompareOutput struct {
	JobID       uuid.UUID                                   `json:"job_id"`
	DocumentRef string                                      `json:"document_ref"`
	PageCount   int                                         `json:"page_count"`
	Results     domain.ParseResultSet                       `json:"results"`
	Costs       map[domain.ProviderID]domain.CostBreakdown `json:"costs"`
}

// StreamStart is the handle a streaming caller gets once a job has been
// validated and dispatched. Document is the resolved document the job was
// dispatched with.
type StreamStart struct {
	Job      *domain.ParseJob
	Document *domain.Document
	Events   <-chan orchestrator.Event
}

// ParseService defines the comparison contract.
type ParseService interface {
	Compare(ctx context.Context, input *CompareInput) (*CompareOutput, error)
	// CompareStream dispatches the job and hands back its event stream. An
	// error means nothing was dispatched; once the stream exists every
	// provider failure is reported inline as a progress event.
	CompareStream(ctx context.Context, input *CompareInput) (*StreamStart, error)
	Cost(ctx context.Context, input *CostInput) ([]domain.CostBreakdown, error)
	// CostOf derives the breakdown for one finished outcome.
	CostOf(outcome *domain.ProviderOutcome, options domain.ParseOptions) domain.CostBreakdown
	Providers() []domain.ProviderID
}

type parseService struct {
	store   port.DocumentStore
	orch    *orchestrator.Orchestrator
	pricing *pricing.Resolver
}

// NewParseService creates a new ParseService implementation.
func NewParseService(store port.DocumentStore, orch *orchestrator.Orchestrator, resolver *pricing.Resolver) ParseService {
	return &parseService{store: store, orch: orch, pricing: resolver}
}

func (s *parseService) Compare(ctx context.Context, input *CompareInput) (*CompareOutput, error) {
	start, err := s.CompareStream(ctx, input)
	if err != nil {
		return nil, err
	}

	results := orchestrator.Collect(start.Events)

	costs := make(map[domain.ProviderID]domain.CostBreakdown, len(results))
	for id, outcome := range results {
		costs[id] = s.CostOf(outcome, input.Options)
	}

	return &CompareOutput{
		JobID:       start.Job.ID,
		DocumentRef: input.DocumentRef,
		PageCount:   start.Document.PageCount,
		Results:     results,
		Costs:       costs,
	}, nil
}

func (s *parseService) CompareStream(ctx context.Context, input *CompareInput) (*StreamStart, error) {
	doc, err := s.store.Fetch(ctx, input.DocumentRef)
	if err != nil {
		return nil, fmt.Errorf("resolving document %s: %w", input.DocumentRef, err)
	}

	job := input.job()
	events, err := s.orch.Run(ctx, job, doc)
	if err != nil {
		return nil, err
	}

	log.Printf("parseService.CompareStream: dispatched job %s for document %s to %d providers",
		job.ID, input.DocumentRef, len(input.Providers))
	return &StreamStart{Job: job, Document: doc, Events: events}, nil
}

func (s *parseService) Cost(ctx context.Context, input *CostInput) ([]domain.CostBreakdown, error) {
	if len(input.Providers) == 0 {
		return nil, domain.ErrNoProvidersSelected
	}
	if input.Pages < 1 {
		return nil, domain.ErrInvalidPageScope
	}
	if err := input.Options.Validate(); err != nil {
		return nil, err
	}

	out := make([]domain.CostBreakdown, 0, len(input.Providers))
	for _, id := range input.Providers {
		if !domain.IsKnownProvider(id) {
			return nil, domain.ErrUnknownProvider
		}
		out = append(out, s.pricing.Cost(id, selectorFor(input.Options, id), input.Pages))
	}
	return out, nil
}

// CostOf prices a terminal outcome from the pages the provider actually
// reported. Errored outcomes and zero-page outcomes carry no cost.
func (s *parseService) CostOf(outcome *domain.ProviderOutcome, options domain.ParseOptions) domain.CostBreakdown {
	if outcome.Status != domain.OutcomeSuccess || outcome.Usage.Pages < 1 {
		return domain.CostBreakdown{Provider: outcome.Provider, Available: false}
	}
	return s.pricing.Cost(outcome.Provider, selectorFor(options, outcome.Provider), outcome.Usage.Pages)
}

func (s *parseService) Providers() []domain.ProviderID {
	return append([]domain.ProviderID(nil), domain.KnownProviders...)
}

// selectorFor returns the pricing selector for a provider, empty when the
// request carried no options for it so the table default applies.
func selectorFor(options domain.ParseOptions, id domain.ProviderID) map[string]string {
	if opts := options.For(id); opts != nil {
		return opts.Selector()
	}
	return nil
}
