package port

import (
	"context"

	"github.com/google/uuid"

	"parsearena/internal/domain"
)

// BattleRepository is the durable store for battle runs, their blind-labeled
// provider results, and feedback.
type BattleRepository interface {
	// CreateRun persists a battle run together with its result rows in a
	// single transaction; a run is never written without its results.
	CreateRun(ctx context.Context, run *domain.BattleRun, results []domain.BattleResult) error

	GetRun(ctx context.Context, battleID uuid.UUID) (*domain.BattleRun, []domain.BattleResult, error)

	// ListRuns returns a page of battle runs in reverse chronological order
	// plus the total count.
	ListRuns(ctx context.Context, offset, limit int) ([]domain.BattleRun, int, error)

	// CreateFeedback persists feedback append-once: if feedback already
	// exists for the battle it returns domain.ErrFeedbackAlreadyExists and
	// leaves the stored row untouched.
	CreateFeedback(ctx context.Context, fb *domain.BattleFeedback) error

	// GetFeedback returns the feedback for a battle, or domain.ErrNotFound.
	GetFeedback(ctx context.Context, battleID uuid.UUID) (*domain.BattleFeedback, error)
}
