package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"parsearena/internal/domain"
	"parsearena/internal/port"
)

type battleRepo struct {
	db *sqlx.DB
}

// NewBattleRepo creates a new PostgreSQL-backed BattleRepository.
func NewBattleRepo(db *sqlx.DB) port.BattleRepository {
	return &battleRepo{db: db}
}

// CreateRun writes a battle run and its blind-labeled result rows in one
// transaction; a run is never persisted without its results.
func (r *battleRepo) CreateRun(ctx context.Context, run *domain.BattleRun, results []domain.BattleResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("battleRepo.CreateRun begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO battle_runs (id, document_ref, original_name, page_number, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.DocumentRef, run.OriginalName, run.PageNumber, run.Status, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("battleRepo.CreateRun insert run: %w", err)
	}

	for i := range results {
		res := &results[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO battle_results (id, battle_id, provider, label, status, content, cost_credits, cost_usd, duration_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			res.ID, res.BattleID, res.Provider, res.Label, res.Status, res.Content,
			res.CostCredits, res.CostUSD, res.DurationMS,
		)
		if err != nil {
			return fmt.Errorf("battleRepo.CreateRun insert result %s: %w", res.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("battleRepo.CreateRun commit: %w", err)
	}
	return nil
}

func (r *battleRepo) GetRun(ctx context.Context, battleID uuid.UUID) (*domain.BattleRun, []domain.BattleResult, error) {
	var run domain.BattleRun
	err := r.db.GetContext(ctx, &run, `
		SELECT id, document_ref, original_name, page_number, status, created_at
		FROM battle_runs WHERE id = $1`, battleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrBattleNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("battleRepo.GetRun: %w", err)
	}

	var results []domain.BattleResult
	err = r.db.SelectContext(ctx, &results, `
		SELECT id, battle_id, provider, label, status, content, cost_credits, cost_usd, duration_ms
		FROM battle_results WHERE battle_id = $1 ORDER BY label ASC`, battleID)
	if err != nil {
		return nil, nil, fmt.Errorf("battleRepo.GetRun results: %w", err)
	}

	return &run, results, nil
}

func (r *battleRepo) ListRuns(ctx context.Context, offset, limit int) ([]domain.BattleRun, int, error) {
	var runs []domain.BattleRun
	err := r.db.SelectContext(ctx, &runs, `
		SELECT id, document_ref, original_name, page_number, status, created_at
		FROM battle_runs ORDER BY created_at DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("battleRepo.ListRuns: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM battle_runs`); err != nil {
		return nil, 0, fmt.Errorf("battleRepo.ListRuns count: %w", err)
	}
	return runs, total, nil
}

// CreateFeedback inserts feedback append-once. A conflicting battle_id means
// the battle is already revealed; the stored feedback is left untouched.
func (r *battleRepo) CreateFeedback(ctx context.Context, fb *domain.BattleFeedback) error {
	labels := make([]string, len(fb.PreferredLabels))
	for i, l := range fb.PreferredLabels {
		labels[i] = string(l)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO battle_feedback (battle_id, preferred_labels, comment, revealed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (battle_id) DO NOTHING`,
		fb.BattleID, pq.Array(labels), fb.Comment, fb.RevealedAt,
	)
	if err != nil {
		return fmt.Errorf("battleRepo.CreateFeedback: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("battleRepo.CreateFeedback rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrFeedbackAlreadyExists
	}
	return nil
}

func (r *battleRepo) GetFeedback(ctx context.Context, battleID uuid.UUID) (*domain.BattleFeedback, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT battle_id, preferred_labels, comment, revealed_at
		FROM battle_feedback WHERE battle_id = $1`, battleID)

	var fb domain.BattleFeedback
	var labels pq.StringArray
	if err := row.Scan(&fb.BattleID, &labels, &fb.Comment, &fb.RevealedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("battleRepo.GetFeedback: %w", err)
	}
	fb.PreferredLabels = make([]domain.PreferredLabel, len(labels))
	for i, l := range labels {
		fb.PreferredLabels[i] = domain.PreferredLabel(l)
	}
	return &fb, nil
}
