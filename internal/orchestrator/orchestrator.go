package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"parsearena/internal/domain"
	"parsearena/internal/port"
	"parsearena/internal/provider"
)

// Orchestrator fans a parse job out to its selected providers, one
// concurrent unit of work per provider, and aggregates their outcomes.
type Orchestrator struct {
	registry *provider.Registry
}

// New creates an Orchestrator over a provider registry.
func New(registry *provider.Registry) *Orchestrator {
	return &Orchestrator{registry: registry}
}

// Run validates the job, then dispatches every selected provider
// concurrently and returns the run's event stream: started, one progress
// per provider in completion order, then completed with the full terminal
// result set. Validation failures are returned before anything is
// dispatched and nothing is partially started.
//
// The channel is buffered for the entire sequence, so producers never block
// on a consumer that has gone away: a disconnected caller simply stops
// reading while in-flight provider calls run to completion. Provider calls
// are bounded by the job's required per-provider timeout on contexts
// detached from ctx's cancellation, so a dead connection does not abort them.
func (o *Orchestrator) Run(ctx context.Context, job *domain.ParseJob, doc *domain.Document) (<-chan Event, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if job.Mode == domain.ModeSinglePage && job.PageNumber > doc.PageCount {
		return nil, domain.ErrInvalidPageScope
	}
	adapters, err := o.registry.Resolve(job.Providers)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, len(adapters)+2)
	events <- Event{Type: EventStarted, Providers: job.Providers}

	outcomes := make(chan *domain.ProviderOutcome, len(adapters))
	var wg sync.WaitGroup
	for _, p := range adapters {
		wg.Add(1)
		go func(p port.Provider) {
			defer wg.Done()
			outcomes <- o.invoke(ctx, job, doc, p)
		}(p)
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	go func() {
		defer close(events)
		results := make(domain.ParseResultSet, len(adapters))
		for outcome := range outcomes {
			results[outcome.Provider] = outcome
			events <- Event{
				Type:     EventProgress,
				Provider: outcome.Provider,
				Status:   outcome.Status,
				Outcome:  outcome,
			}
		}
		events <- Event{Type: EventCompleted, Results: results}
	}()

	return events, nil
}

// invoke runs a single provider call to a terminal outcome. A failure is
// captured inline in the outcome and never propagates to sibling providers.
func (o *Orchestrator) invoke(ctx context.Context, job *domain.ParseJob, doc *domain.Document, p port.Provider) *domain.ProviderOutcome {
	// Detach from the caller's cancellation so an abandoned connection does
	// not kill in-flight calls; the job's own timeout still bounds each one.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), job.ProviderTimeout)
	defer cancel()

	start := time.Now()
	outcome, err := p.Parse(callCtx, port.ParseInput{
		Document:   doc,
		Mode:       job.Mode,
		PageNumber: job.PageNumber,
		Options:    job.Options.For(p.ID()),
	})
	elapsed := time.Since(start)

	if err != nil {
		log.Printf("orchestrator: provider %s failed after %s (job %s): %v", p.ID(), elapsed, job.ID, err)
		return &domain.ProviderOutcome{
			Provider: p.ID(),
			Status:   domain.OutcomeError,
			Duration: elapsed,
			Error: &domain.OutcomeFailure{
				Kind:    string(provider.KindOf(err)),
				Message: err.Error(),
			},
		}
	}
	if outcome == nil {
		outcome = &domain.ProviderOutcome{Provider: p.ID()}
	}

	outcome.Provider = p.ID()
	outcome.Status = domain.OutcomeSuccess
	outcome.Duration = elapsed
	log.Printf("orchestrator: provider %s completed in %s (job %s, %d pages)", p.ID(), elapsed, job.ID, len(outcome.Pages))
	return outcome
}
