package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"parsearena/internal/service"
)

// MockBattleService is a mock implementation of service.BattleService.
type MockBattleService struct {
	mock.Mock
}

func (m *MockBattleService) Create(ctx context.Context, input *service.CreateBattleInput) (*service.CreateBattleOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateBattleOutput), args.Error(1)
}

func (m *MockBattleService) SubmitFeedback(ctx context.Context, input *service.FeedbackInput) (*service.FeedbackOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FeedbackOutput), args.Error(1)
}

func (m *MockBattleService) History(ctx context.Context, offset, limit int) (*service.HistoryOutput, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HistoryOutput), args.Error(1)
}

func (m *MockBattleService) Detail(ctx context.Context, battleID uuid.UUID) (*service.BattleDetail, error) {
	args := m.Called(ctx, battleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BattleDetail), args.Error(1)
}

func (m *MockBattleService) ExportCSV(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}
