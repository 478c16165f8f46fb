package service_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parsearena/internal/domain"
	"parsearena/internal/orchestrator"
	"parsearena/internal/port"
	"parsearena/internal/pricing"
	"parsearena/internal/provider"
	"parsearena/internal/service"
	"parsearena/mocks"
)

func testResolver() *pricing.Resolver {
	return pricing.NewResolver(pricing.Table{
		domain.ProviderReducto: {
			USDPerCredit: 0.02,
			Keys:         []string{"mode"},
			Entries: []pricing.Entry{
				{Label: "Standard", Selector: map[string]string{"mode": "standard"}, CreditsPerPage: 1, Default: true},
			},
		},
		domain.ProviderLlamaIndex: {
			USDPerCredit: 0.001,
			Keys:         []string{"parse_mode", "model"},
			Entries: []pricing.Entry{
				{Label: "Agent", Selector: map[string]string{}, CreditsPerPage: 10, Default: true},
			},
		},
	})
}

func successfulAdapter(id domain.ProviderID) *mocks.MockProvider {
	m := &mocks.MockProvider{ProviderID: id}
	m.On("Parse", mock.Anything, mock.Anything).Return(&domain.ProviderOutcome{
		Pages: []domain.PageResult{{PageNumber: 1, Content: "# parsed by " + string(id)}},
		Usage: domain.Usage{Pages: 1},
	}, nil)
	return m
}

func newBattleService(t *testing.T, store *mocks.MockDocumentStore, repo *mocks.MockBattleRepo, adapters ...port.Provider) service.BattleService {
	t.Helper()
	reg, err := provider.NewRegistry(adapters...)
	require.NoError(t, err)
	return service.NewBattleService(
		store, repo, orchestrator.New(reg), testResolver(),
		5*time.Second, 20,
		rand.New(rand.NewPCG(1, 2)),
	)
}

func storedDoc() *domain.Document {
	return &domain.Document{
		Ref:          "doc-1",
		OriginalName: "contract.pdf",
		ContentType:  "application/pdf",
		PageCount:    4,
		Bytes:        []byte("%PDF-1.7 fake"),
	}
}

func TestBattleCreate_BlindPayloadAndPersistence(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)
	svc := newBattleService(t, store, repo,
		successfulAdapter(domain.ProviderReducto),
		successfulAdapter(domain.ProviderLlamaIndex),
	)

	store.On("Fetch", mock.Anything, "doc-1").Return(storedDoc(), nil)

	var persistedRun *domain.BattleRun
	var persistedResults []domain.BattleResult
	repo.On("CreateRun", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			persistedRun = args.Get(1).(*domain.BattleRun)
			persistedResults = args.Get(2).([]domain.BattleResult)
		}).
		Return(nil)

	out, err := svc.Create(context.Background(), &service.CreateBattleInput{
		DocumentRef: "doc-1",
		PageNumber:  2,
		Pool:        []domain.ProviderID{domain.ProviderReducto, domain.ProviderLlamaIndex},
	})
	require.NoError(t, err)

	// The blind payload carries labels only, never provider identities.
	require.Len(t, out.Results, 2)
	labels := map[domain.BlindLabel]bool{}
	for _, r := range out.Results {
		labels[r.Label] = true
		assert.Equal(t, domain.OutcomeSuccess, r.Status)
		assert.NotEmpty(t, r.Pages)
	}
	assert.True(t, labels[domain.LabelA])
	assert.True(t, labels[domain.LabelB])

	// Run and both result rows persisted together.
	require.NotNil(t, persistedRun)
	assert.Equal(t, out.BattleID, persistedRun.ID)
	assert.Equal(t, domain.BattleSuccess, persistedRun.Status)
	assert.Equal(t, "contract.pdf", persistedRun.OriginalName)
	assert.Equal(t, 2, persistedRun.PageNumber)

	require.Len(t, persistedResults, 2)
	seen := map[domain.ProviderID]bool{}
	for _, row := range persistedResults {
		assert.Equal(t, out.BattleID, row.BattleID)
		seen[row.Provider] = true
		require.NotNil(t, row.CostUSD, "successful outcome should carry a cost")
	}
	assert.True(t, seen[domain.ProviderReducto])
	assert.True(t, seen[domain.ProviderLlamaIndex])

	repo.AssertExpectations(t)
}

func TestBattleCreate_PoolTooSmall(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)
	svc := newBattleService(t, store, repo, successfulAdapter(domain.ProviderReducto))

	_, err := svc.Create(context.Background(), &service.CreateBattleInput{
		DocumentRef: "doc-1",
		Pool:        []domain.ProviderID{domain.ProviderReducto},
	})
	assert.ErrorIs(t, err, domain.ErrPoolTooSmall)

	// Nothing was fetched or persisted.
	store.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestBattleCreate_FixedPairIsUsed(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)
	svc := newBattleService(t, store, repo,
		successfulAdapter(domain.ProviderReducto),
		successfulAdapter(domain.ProviderLlamaIndex),
		successfulAdapter(domain.ProviderExtendAI),
	)

	store.On("Fetch", mock.Anything, "doc-1").Return(storedDoc(), nil)

	var persisted []domain.BattleResult
	repo.On("CreateRun", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { persisted = args.Get(2).([]domain.BattleResult) }).
		Return(nil)

	_, err := svc.Create(context.Background(), &service.CreateBattleInput{
		DocumentRef: "doc-1",
		Pool:        []domain.ProviderID{domain.ProviderReducto, domain.ProviderLlamaIndex, domain.ProviderExtendAI},
		FixedPair:   []domain.ProviderID{domain.ProviderReducto, domain.ProviderExtendAI},
	})
	require.NoError(t, err)

	require.Len(t, persisted, 2)
	got := map[domain.ProviderID]bool{}
	for _, row := range persisted {
		got[row.Provider] = true
	}
	assert.True(t, got[domain.ProviderReducto])
	assert.True(t, got[domain.ProviderExtendAI])
}

func TestBattleCreate_StatusTracksParseOutcome(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)

	var persistedRun *domain.BattleRun
	repo.On("CreateRun", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { persistedRun = args.Get(1).(*domain.BattleRun) }).
		Return(nil)
	store.On("Fetch", mock.Anything, "doc-1").Return(storedDoc(), nil)

	// One contestant succeeding is enough for a success run.
	svc := newBattleService(t, store, repo,
		successfulAdapter(domain.ProviderReducto),
		failingAdapter(domain.ProviderLlamaIndex, errors.New("upstream exploded")),
	)
	_, err := svc.Create(context.Background(), &service.CreateBattleInput{
		DocumentRef: "doc-1",
		Pool:        []domain.ProviderID{domain.ProviderReducto, domain.ProviderLlamaIndex},
	})
	require.NoError(t, err)
	require.NotNil(t, persistedRun)
	assert.Equal(t, domain.BattleSuccess, persistedRun.Status)

	// Both contestants failing marks the run as an error.
	persistedRun = nil
	svc = newBattleService(t, store, repo,
		failingAdapter(domain.ProviderReducto, errors.New("upstream exploded")),
		failingAdapter(domain.ProviderLlamaIndex, errors.New("upstream exploded")),
	)
	_, err = svc.Create(context.Background(), &service.CreateBattleInput{
		DocumentRef: "doc-1",
		Pool:        []domain.ProviderID{domain.ProviderReducto, domain.ProviderLlamaIndex},
	})
	require.NoError(t, err)
	require.NotNil(t, persistedRun)
	assert.Equal(t, domain.BattleError, persistedRun.Status)
}

func revealFixtures(battleID uuid.UUID) (*domain.BattleRun, []domain.BattleResult) {
	run := &domain.BattleRun{
		ID:          battleID,
		DocumentRef: "doc-1",
		PageNumber:  1,
		Status:      domain.BattleSuccess,
		CreatedAt:   time.Now().UTC(),
	}
	results := []domain.BattleResult{
		{ID: uuid.New(), BattleID: battleID, Provider: domain.ProviderReducto, Label: domain.LabelA, Status: domain.OutcomeSuccess},
		{ID: uuid.New(), BattleID: battleID, Provider: domain.ProviderLlamaIndex, Label: domain.LabelB, Status: domain.OutcomeSuccess},
	}
	return run, results
}

func TestSubmitFeedback_RevealsAssignmentsAndWinner(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)
	svc := newBattleService(t, store, repo, successfulAdapter(domain.ProviderReducto), successfulAdapter(domain.ProviderLlamaIndex))

	battleID := uuid.New()
	run, results := revealFixtures(battleID)
	repo.On("GetRun", mock.Anything, battleID).Return(run, results, nil)
	repo.On("CreateFeedback", mock.Anything, mock.MatchedBy(func(fb *domain.BattleFeedback) bool {
		return fb.BattleID == battleID && len(fb.PreferredLabels) == 1 && fb.PreferredLabels[0] == domain.PreferA
	})).Return(nil)

	out, err := svc.SubmitFeedback(context.Background(), &service.FeedbackInput{
		BattleID:        battleID,
		PreferredLabels: []domain.PreferredLabel{domain.PreferA},
		Comment:         "cleaner tables",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.ProviderReducto), out.Winner)
	require.Len(t, out.Results, 2)
	assert.Equal(t, domain.ProviderReducto, out.Results[0].Provider)
	assert.Equal(t, domain.LabelA, out.Results[0].Label)
	repo.AssertExpectations(t)
}

func TestSubmitFeedback_AppendOnceConflict(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)
	svc := newBattleService(t, store, repo, successfulAdapter(domain.ProviderReducto), successfulAdapter(domain.ProviderLlamaIndex))

	battleID := uuid.New()
	run, results := revealFixtures(battleID)
	repo.On("GetRun", mock.Anything, battleID).Return(run, results, nil)
	repo.On("CreateFeedback", mock.Anything, mock.Anything).Return(domain.ErrFeedbackAlreadyExists)

	_, err := svc.SubmitFeedback(context.Background(), &service.FeedbackInput{
		BattleID:        battleID,
		PreferredLabels: []domain.PreferredLabel{domain.PreferB},
	})
	assert.ErrorIs(t, err, domain.ErrFeedbackAlreadyExists)
}

func TestSubmitFeedback_InvalidPreferences(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)
	svc := newBattleService(t, store, repo, successfulAdapter(domain.ProviderReducto), successfulAdapter(domain.ProviderLlamaIndex))

	_, err := svc.SubmitFeedback(context.Background(), &service.FeedbackInput{
		BattleID:        uuid.New(),
		PreferredLabels: nil,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPreference)

	_, err = svc.SubmitFeedback(context.Background(), &service.FeedbackInput{
		BattleID:        uuid.New(),
		PreferredLabels: []domain.PreferredLabel{"C"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPreference)

	repo.AssertNotCalled(t, "CreateFeedback", mock.Anything, mock.Anything)
}

func TestSubmitFeedback_UnknownBattle(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)
	svc := newBattleService(t, store, repo, successfulAdapter(domain.ProviderReducto), successfulAdapter(domain.ProviderLlamaIndex))

	battleID := uuid.New()
	repo.On("GetRun", mock.Anything, battleID).Return(nil, nil, domain.ErrBattleNotFound)

	_, err := svc.SubmitFeedback(context.Background(), &service.FeedbackInput{
		BattleID:        battleID,
		PreferredLabels: []domain.PreferredLabel{domain.PreferTie},
	})
	assert.ErrorIs(t, err, domain.ErrBattleNotFound)
}

func TestHistory_WinnerOnlyOnRevealedBattles(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)
	svc := newBattleService(t, store, repo, successfulAdapter(domain.ProviderReducto), successfulAdapter(domain.ProviderLlamaIndex))

	revealedID := uuid.New()
	pendingID := uuid.New()
	revealedRun, revealedResults := revealFixtures(revealedID)
	pendingRun, _ := revealFixtures(pendingID)

	repo.On("ListRuns", mock.Anything, 0, 20).Return([]domain.BattleRun{*revealedRun, *pendingRun}, 2, nil)
	repo.On("GetFeedback", mock.Anything, revealedID).Return(&domain.BattleFeedback{
		BattleID:        revealedID,
		PreferredLabels: []domain.PreferredLabel{domain.PreferB},
		RevealedAt:      time.Now().UTC(),
	}, nil)
	repo.On("GetRun", mock.Anything, revealedID).Return(revealedRun, revealedResults, nil)
	repo.On("GetFeedback", mock.Anything, pendingID).Return(nil, domain.ErrNotFound)

	out, err := svc.History(context.Background(), 0, 20)
	require.NoError(t, err)
	require.Len(t, out.Battles, 2)
	assert.Equal(t, 2, out.Total)

	assert.Equal(t, string(domain.ProviderLlamaIndex), out.Battles[0].Winner)
	assert.Len(t, out.Battles[0].Providers, 2)

	assert.Empty(t, out.Battles[1].Winner, "unrevealed battle stays blind")
	assert.Empty(t, out.Battles[1].Providers)
}

func TestDetail_HidesProvidersUntilRevealed(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	repo := new(mocks.MockBattleRepo)
	svc := newBattleService(t, store, repo, successfulAdapter(domain.ProviderReducto), successfulAdapter(domain.ProviderLlamaIndex))

	battleID := uuid.New()
	run, results := revealFixtures(battleID)
	repo.On("GetRun", mock.Anything, battleID).Return(run, results, nil)
	repo.On("GetFeedback", mock.Anything, battleID).Return(nil, domain.ErrNotFound)

	detail, err := svc.Detail(context.Background(), battleID)
	require.NoError(t, err)
	require.Len(t, detail.Results, 2)
	for _, r := range detail.Results {
		assert.Empty(t, r.Provider)
	}
	assert.Nil(t, detail.Feedback)
	assert.Empty(t, detail.Winner)
}
