package battle

import (
	"fmt"
	"math/rand/v2"

	"parsearena/internal/domain"
)

// State is a phase of a battle's lifecycle. Transitions only move forward:
// configuring -> pool_selected -> dispatched -> awaiting_feedback -> revealed.
type State string

const (
	StateConfiguring      State = "configuring"
	StatePoolSelected     State = "pool_selected"
	StateDispatched       State = "dispatched"
	StateAwaitingFeedback State = "awaiting_feedback"
	StateRevealed         State = "revealed"
)

// TransitionError reports an operation applied in the wrong state.
type TransitionError struct {
	From State
	Op   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("battle: cannot %s in state %s", e.Op, e.From)
}

// Selector drives one blind two-provider battle from configuration through
// reveal. It is not safe for concurrent use; each battle gets its own.
type Selector struct {
	rng *rand.Rand

	state       State
	pair        [2]domain.ProviderID
	assignments []domain.BattleAssignment
}

// NewSelector creates a Selector in the configuring state. rng may be nil,
// in which case a system-seeded source is used.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{rng: rng, state: StateConfiguring}
}

// State returns the current lifecycle phase.
func (s *Selector) State() State { return s.state }

// SelectPool validates the enabled-provider pool and chooses the two
// contestants: the fixed pair when given, otherwise a uniformly random draw
// of two distinct pool members. Any configuration failure leaves the
// selector in configuring with nothing dispatched.
func (s *Selector) SelectPool(pool []domain.ProviderID, fixed []domain.ProviderID) error {
	if s.state != StateConfiguring {
		return &TransitionError{From: s.state, Op: "select pool"}
	}
	if len(pool) < 2 {
		return domain.ErrPoolTooSmall
	}
	members := make(map[domain.ProviderID]struct{}, len(pool))
	for _, p := range pool {
		if !domain.IsKnownProvider(p) {
			return domain.ErrUnknownProvider
		}
		if _, dup := members[p]; dup {
			return domain.ErrDuplicateProvider
		}
		members[p] = struct{}{}
	}

	if len(fixed) > 0 {
		if len(fixed) != 2 || fixed[0] == fixed[1] {
			return domain.ErrFixedPairInvalid
		}
		for _, p := range fixed {
			if _, ok := members[p]; !ok {
				return domain.ErrFixedPairInvalid
			}
		}
		s.pair = [2]domain.ProviderID{fixed[0], fixed[1]}
	} else {
		perm := s.rng.Perm(len(pool))
		s.pair = [2]domain.ProviderID{pool[perm[0]], pool[perm[1]]}
	}

	s.state = StatePoolSelected
	return nil
}

// AssignLabels draws a uniformly random bijection from the chosen pair onto
// the blind labels A and B and moves the battle to dispatched. The mapping
// is kept server-side; callers see only the labels until reveal.
func (s *Selector) AssignLabels() ([]domain.BattleAssignment, error) {
	if s.state != StatePoolSelected {
		return nil, &TransitionError{From: s.state, Op: "assign labels"}
	}

	first, second := s.pair[0], s.pair[1]
	if s.rng.IntN(2) == 1 {
		first, second = second, first
	}
	s.assignments = []domain.BattleAssignment{
		{Label: domain.LabelA, Provider: first},
		{Label: domain.LabelB, Provider: second},
	}
	s.state = StateDispatched
	return s.Assignments(), nil
}

// Pair returns the two chosen providers in selection order.
func (s *Selector) Pair() [2]domain.ProviderID { return s.pair }

// Assignments returns a copy of the label bijection.
func (s *Selector) Assignments() []domain.BattleAssignment {
	out := make([]domain.BattleAssignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// MarkAwaitingFeedback records that the run and its blind results are
// persisted and the battle now waits on user feedback.
func (s *Selector) MarkAwaitingFeedback() error {
	if s.state != StateDispatched {
		return &TransitionError{From: s.state, Op: "await feedback"}
	}
	s.state = StateAwaitingFeedback
	return nil
}

// Reveal makes the battle terminal. Once revealed, no further transition
// is possible.
func (s *Selector) Reveal() error {
	if s.state != StateAwaitingFeedback {
		return &TransitionError{From: s.state, Op: "reveal"}
	}
	s.state = StateRevealed
	return nil
}
