package orchestrator

import "parsearena/internal/domain"

// EventType discriminates orchestration events.
type EventType string

const (
	// EventStarted is always the first event and lists all selected providers.
	EventStarted EventType = "started"
	// EventProgress is emitted once per provider, in real completion order,
	// as it reaches a terminal status.
	EventProgress EventType = "progress"
	// EventCompleted is always the last event, strictly after every
	// progress event, and carries the full terminal result set.
	EventCompleted EventType = "completed"
)

// Event is one message on a run's ordered event stream. Exactly one field
// group is populated depending on Type.
type Event struct {
	Type EventType

	// Started
	Providers []domain.ProviderID

	// Progress
	Provider domain.ProviderID
	Status   domain.OutcomeStatus
	Outcome  *domain.ProviderOutcome

	// Completed
	Results domain.ParseResultSet
}

// Collect drains an event stream and returns the final result set. It is
// the non-streaming caller's view of a run: by the time it returns, every
// requested provider holds a terminal outcome.
func Collect(events <-chan Event) domain.ParseResultSet {
	for ev := range events {
		if ev.Type == EventCompleted {
			return ev.Results
		}
	}
	return nil
}
