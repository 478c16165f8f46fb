package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"parsearena/internal/battle"
	"parsearena/internal/csvexport"
	"parsearena/internal/domain"
	"parsearena/internal/orchestrator"
	"parsearena/internal/port"
	"parsearena/internal/pricing"
)

// exportChunkSize bounds how many runs one CSV export query pulls at a time.
const exportChunkSize = 500

// CreateBattleInput is the DTO for starting a blind battle.
type CreateBattleInput struct {
	DocumentRef string
	PageNumber  int
	// Pool is the set of enabled providers; empty means all known providers.
	Pool []domain.ProviderID
	// FixedPair pins the two contestants instead of a random draw.
	FixedPair []domain.ProviderID
	Options   domain.ParseOptions
}

// BlindResult is one labeled contestant's output with the provider hidden.
type BlindResult struct {
	Label      domain.BlindLabel      `json:"label"`
	Status     domain.OutcomeStatus   `json:"status"`
	Pages      []domain.PageResult    `json:"pages,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
	Error      *domain.OutcomeFailure `json:"error,omitempty"`
}

// CreateBattleOutput is the blind payload returned on battle creation. It
// never carries provider identities or costs; those stay server-side until
// reveal.
type CreateBattleOutput struct {
	BattleID    uuid.UUID     `json:"battle_id"`
	DocumentRef string        `json:"document_ref"`
	PageNumber  int           `json:"page_number"`
	Results     []BlindResult `json:"results"`
}

// FeedbackInput is the DTO for submitting a battle verdict.
type FeedbackInput struct {
	BattleID        uuid.UUID
	PreferredLabels []domain.PreferredLabel
	Comment         string
}

// RevealedResult is one contestant after reveal: label, provider, and cost.
type RevealedResult struct {
	Label       domain.BlindLabel `json:"label"`
	Provider    domain.ProviderID `json:"provider"`
	CostCredits *float64          `json:"cost_credits,omitempty"`
	CostUSD     *float64          `json:"cost_usd,omitempty"`
}

// FeedbackOutput is the reveal payload returned once feedback is recorded.
type FeedbackOutput struct {
	BattleID   uuid.UUID        `json:"battle_id"`
	Results    []RevealedResult `json:"results"`
	Winner     string           `json:"winner"`
	RevealedAt time.Time        `json:"revealed_at"`
}

// HistoryEntry is one battle in the paginated history listing. Providers and
// winner are only present for revealed battles.
type HistoryEntry struct {
	domain.BattleRun
	Providers []domain.ProviderID `json:"providers,omitempty"`
	Winner    string              `json:"winner,omitempty"`
}

// HistoryOutput is one page of battle history.
type HistoryOutput struct {
	Battles []HistoryEntry `json:"battles"`
	Total   int            `json:"total"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
}

// BattleDetailResult is one contestant row in a battle detail view. Provider
// is empty until the battle is revealed.
type BattleDetailResult struct {
	Label       domain.BlindLabel    `json:"label"`
	Provider    domain.ProviderID    `json:"provider,omitempty"`
	Status      domain.OutcomeStatus `json:"status"`
	Content     json.RawMessage      `json:"content,omitempty"`
	CostCredits *float64             `json:"cost_credits,omitempty"`
	CostUSD     *float64             `json:"cost_usd,omitempty"`
	DurationMS  int64                `json:"duration_ms"`
}

// BattleDetail is the full view of one battle.
type BattleDetail struct {
	Run      domain.BattleRun       `json:"run"`
	Results  []BattleDetailResult   `json:"results"`
	Feedback *domain.BattleFeedback `json:"feedback,omitempty"`
	Winner   string                 `json:"winner,omitempty"`
}

// BattleService defines the blind-battle contract.
type BattleService interface {
	Create(ctx context.Context, input *CreateBattleInput) (*CreateBattleOutput, error)
	SubmitFeedback(ctx context.Context, input *FeedbackInput) (*FeedbackOutput, error)
	History(ctx context.Context, offset, limit int) (*HistoryOutput, error)
	Detail(ctx context.Context, battleID uuid.UUID) (*BattleDetail, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type battleService struct {
	store   port.DocumentStore
	repo    port.BattleRepository
	orch    *orchestrator.Orchestrator
	pricing *pricing.Resolver

	timeout  time.Duration
	pageSize int
	rng      *rand.Rand
}

// NewBattleService creates a new BattleService implementation. rng may be
// nil, in which case each battle draws from a system-seeded source.
func NewBattleService(
	store port.DocumentStore,
	repo port.BattleRepository,
	orch *orchestrator.Orchestrator,
	resolver *pricing.Resolver,
	timeout time.Duration,
	historyPageSize int,
	rng *rand.Rand,
) BattleService {
	return &battleService{
		store:    store,
		repo:     repo,
		orch:     orch,
		pricing:  resolver,
		timeout:  timeout,
		pageSize: historyPageSize,
		rng:      rng,
	}
}

// resultContent is the JSON shape persisted in a battle result row.
type resultContent struct {
	Pages []domain.PageResult    `json:"pages,omitempty"`
	Usage domain.Usage           `json:"usage"`
	Error *domain.OutcomeFailure `json:"error,omitempty"`
}

func (s *battleService) Create(ctx context.Context, input *CreateBattleInput) (*CreateBattleOutput, error) {
	pool := input.Pool
	if len(pool) == 0 {
		pool = domain.KnownProviders
	}

	sel := battle.NewSelector(s.rng)
	if err := sel.SelectPool(pool, input.FixedPair); err != nil {
		return nil, err
	}
	assignments, err := sel.AssignLabels()
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Fetch(ctx, input.DocumentRef)
	if err != nil {
		return nil, fmt.Errorf("resolving document %s: %w", input.DocumentRef, err)
	}

	pageNumber := input.PageNumber
	if pageNumber == 0 {
		pageNumber = 1
	}

	pair := sel.Pair()
	job := &domain.ParseJob{
		ID:              uuid.New(),
		DocumentRef:     input.DocumentRef,
		Providers:       pair[:],
		Options:         input.Options,
		Mode:            domain.ModeSinglePage,
		PageNumber:      pageNumber,
		ProviderTimeout: s.timeout,
	}

	events, err := s.orch.Run(ctx, job, doc)
	if err != nil {
		return nil, err
	}
	outcomes := orchestrator.Collect(events)

	battleID := uuid.New()
	run := &domain.BattleRun{
		ID:           battleID,
		DocumentRef:  input.DocumentRef,
		OriginalName: doc.OriginalName,
		PageNumber:   pageNumber,
		Status:       domain.BattleError,
		CreatedAt:    time.Now().UTC(),
	}

	rows := make([]domain.BattleResult, 0, len(assignments))
	blind := make([]BlindResult, 0, len(assignments))
	for _, a := range assignments {
		outcome := outcomes[a.Provider]
		if outcome == nil {
			return nil, fmt.Errorf("missing outcome for contestant %s", a.Label)
		}
		if outcome.Status == domain.OutcomeSuccess {
			run.Status = domain.BattleSuccess
		}

		row := domain.BattleResult{
			ID:         uuid.New(),
			BattleID:   battleID,
			Provider:   a.Provider,
			Label:      a.Label,
			Status:     outcome.Status,
			DurationMS: outcome.Duration.Milliseconds(),
		}
		content, err := json.Marshal(resultContent{
			Pages: outcome.Pages,
			Usage: outcome.Usage,
			Error: outcome.Error,
		})
		if err != nil {
			return nil, fmt.Errorf("encoding result content: %w", err)
		}
		row.Content = content

		if cost := s.costOf(outcome, input.Options); cost.Available {
			credits, usd := cost.TotalCredits, cost.TotalUSD
			row.CostCredits = &credits
			row.CostUSD = &usd
		}
		rows = append(rows, row)

		blind = append(blind, BlindResult{
			Label:      a.Label,
			Status:     outcome.Status,
			Pages:      outcome.Pages,
			DurationMS: row.DurationMS,
			Error:      outcome.Error,
		})
	}

	if err := s.repo.CreateRun(ctx, run, rows); err != nil {
		return nil, fmt.Errorf("persisting battle %s: %w", battleID, err)
	}
	if err := sel.MarkAwaitingFeedback(); err != nil {
		return nil, err
	}

	log.Printf("battleService.Create: battle %s created for document %s (page %d)",
		battleID, input.DocumentRef, pageNumber)
	return &CreateBattleOutput{
		BattleID:    battleID,
		DocumentRef: input.DocumentRef,
		PageNumber:  pageNumber,
		Results:     blind,
	}, nil
}

func (s *battleService) costOf(outcome *domain.ProviderOutcome, options domain.ParseOptions) domain.CostBreakdown {
	if outcome.Status != domain.OutcomeSuccess || outcome.Usage.Pages < 1 {
		return domain.CostBreakdown{Provider: outcome.Provider, Available: false}
	}
	return s.pricing.Cost(outcome.Provider, selectorFor(options, outcome.Provider), outcome.Usage.Pages)
}

func (s *battleService) SubmitFeedback(ctx context.Context, input *FeedbackInput) (*FeedbackOutput, error) {
	if len(input.PreferredLabels) == 0 {
		return nil, domain.ErrInvalidPreference
	}
	if err := domain.ValidatePreferredLabels(input.PreferredLabels); err != nil {
		return nil, err
	}

	_, results, err := s.repo.GetRun(ctx, input.BattleID)
	if err != nil {
		return nil, err
	}

	fb := &domain.BattleFeedback{
		BattleID:        input.BattleID,
		PreferredLabels: input.PreferredLabels,
		Comment:         input.Comment,
		RevealedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateFeedback(ctx, fb); err != nil {
		return nil, err
	}

	revealed := make([]RevealedResult, 0, len(results))
	assignments := make([]domain.BattleAssignment, 0, len(results))
	for i := range results {
		res := &results[i]
		assignments = append(assignments, domain.BattleAssignment{Label: res.Label, Provider: res.Provider})
		revealed = append(revealed, RevealedResult{
			Label:       res.Label,
			Provider:    res.Provider,
			CostCredits: res.CostCredits,
			CostUSD:     res.CostUSD,
		})
	}

	winner := domain.Winner(input.PreferredLabels, assignments)
	log.Printf("battleService.SubmitFeedback: battle %s revealed, winner %s", input.BattleID, winner)
	return &FeedbackOutput{
		BattleID:   input.BattleID,
		Results:    revealed,
		Winner:     winner,
		RevealedAt: fb.RevealedAt,
	}, nil
}

func (s *battleService) History(ctx context.Context, offset, limit int) (*HistoryOutput, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > s.pageSize {
		limit = s.pageSize
	}

	runs, total, err := s.repo.ListRuns(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(runs))
	for i := range runs {
		entry := HistoryEntry{BattleRun: runs[i]}
		winner, providers, err := s.verdict(ctx, runs[i].ID)
		switch {
		case err == nil:
			entry.Winner = winner
			entry.Providers = providers
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		entries = append(entries, entry)
	}

	return &HistoryOutput{Battles: entries, Total: total, Offset: offset, Limit: limit}, nil
}

// verdict resolves a battle's winner and contestant providers from its
// feedback. domain.ErrNotFound means the battle has not been revealed.
func (s *battleService) verdict(ctx context.Context, battleID uuid.UUID) (string, []domain.ProviderID, error) {
	fb, err := s.repo.GetFeedback(ctx, battleID)
	if err != nil {
		return "", nil, err
	}
	_, results, err := s.repo.GetRun(ctx, battleID)
	if err != nil {
		return "", nil, err
	}

	assignments := make([]domain.BattleAssignment, 0, len(results))
	providers := make([]domain.ProviderID, 0, len(results))
	for i := range results {
		assignments = append(assignments, domain.BattleAssignment{
			Label:    results[i].Label,
			Provider: results[i].Provider,
		})
		providers = append(providers, results[i].Provider)
	}
	return domain.Winner(fb.PreferredLabels, assignments), providers, nil
}

func (s *battleService) Detail(ctx context.Context, battleID uuid.UUID) (*BattleDetail, error) {
	run, results, err := s.repo.GetRun(ctx, battleID)
	if err != nil {
		return nil, err
	}

	fb, err := s.repo.GetFeedback(ctx, battleID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	revealed := fb != nil

	detail := &BattleDetail{Run: *run, Feedback: fb}
	assignments := make([]domain.BattleAssignment, 0, len(results))
	for i := range results {
		res := &results[i]
		dr := BattleDetailResult{
			Label:      res.Label,
			Status:     res.Status,
			Content:    json.RawMessage(res.Content),
			DurationMS: res.DurationMS,
		}
		if revealed {
			dr.Provider = res.Provider
			dr.CostCredits = res.CostCredits
			dr.CostUSD = res.CostUSD
			assignments = append(assignments, domain.BattleAssignment{
				Label:    res.Label,
				Provider: res.Provider,
			})
		}
		detail.Results = append(detail.Results, dr)
	}
	if revealed {
		detail.Winner = domain.Winner(fb.PreferredLabels, assignments)
	}
	return detail, nil
}

func (s *battleService) ExportCSV(ctx context.Context, w io.Writer) error {
	if _, err := w.Write(csvexport.BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csvexport.NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for offset := 0; ; offset += exportChunkSize {
		runs, _, err := s.repo.ListRuns(ctx, offset, exportChunkSize)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			break
		}

		records := make([]csvexport.BattleRecord, 0, len(runs))
		for i := range runs {
			_, results, err := s.repo.GetRun(ctx, runs[i].ID)
			if err != nil {
				return err
			}
			rec := csvexport.BattleRecord{Run: runs[i], Results: results}
			fb, err := s.repo.GetFeedback(ctx, runs[i].ID)
			switch {
			case err == nil:
				rec.Feedback = fb
				assignments := make([]domain.BattleAssignment, 0, len(results))
				for j := range results {
					assignments = append(assignments, domain.BattleAssignment{
						Label:    results[j].Label,
						Provider: results[j].Provider,
					})
				}
				rec.Winner = domain.Winner(fb.PreferredLabels, assignments)
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
			records = append(records, rec)
		}

		if err := cw.WriteBattles(records); err != nil {
			return err
		}
		if len(runs) < exportChunkSize {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}
