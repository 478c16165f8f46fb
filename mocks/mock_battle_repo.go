package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"parsearena/internal/domain"
)

// MockBattleRepo is a mock implementation of port.BattleRepository.
type MockBattleRepo struct {
	mock.Mock
}

func (m *MockBattleRepo) CreateRun(ctx context.Context, run *domain.BattleRun, results []domain.BattleResult) error {
	args := m.Called(ctx, run, results)
	return args.Error(0)
}

func (m *MockBattleRepo) GetRun(ctx context.Context, battleID uuid.UUID) (*domain.BattleRun, []domain.BattleResult, error) {
	args := m.Called(ctx, battleID)
	var run *domain.BattleRun
	if args.Get(0) != nil {
		run = args.Get(0).(*domain.BattleRun)
	}
	var results []domain.BattleResult
	if args.Get(1) != nil {
		results = args.Get(1).([]domain.BattleResult)
	}
	return run, results, args.Error(2)
}

func (m *MockBattleRepo) ListRuns(ctx context.Context, offset, limit int) ([]domain.BattleRun, int, error) {
	args := m.Called(ctx, offset, limit)
	var runs []domain.BattleRun
	if args.Get(0) != nil {
		runs = args.Get(0).([]domain.BattleRun)
	}
	return runs, args.Int(1), args.Error(2)
}

func (m *MockBattleRepo) CreateFeedback(ctx context.Context, fb *domain.BattleFeedback) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}

func (m *MockBattleRepo) GetFeedback(ctx context.Context, battleID uuid.UUID) (*domain.BattleFeedback, error) {
	args := m.Called(ctx, battleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BattleFeedback), args.Error(1)
}
