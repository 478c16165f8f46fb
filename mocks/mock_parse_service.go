package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"parsearena/internal/domain"
	"parsearena/internal/service"
)

// MockParseService is a mock implementation of service.ParseService.
type MockParseService struct {
	mock.Mock
}

func (m *MockParseService) Compare(ctx context.Context, input *service.CompareInput) (*service.CompareOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CompareOutput), args.Error(1)
}

func (m *MockParseService) CompareStream(ctx context.Context, input *service.CompareInput) (*service.StreamStart, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StreamStart), args.Error(1)
}

func (m *MockParseService) Cost(ctx context.Context, input *service.CostInput) ([]domain.CostBreakdown, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CostBreakdown), args.Error(1)
}

func (m *MockParseService) CostOf(outcome *domain.ProviderOutcome, options domain.ParseOptions) domain.CostBreakdown {
	args := m.Called(outcome, options)
	return args.Get(0).(domain.CostBreakdown)
}

func (m *MockParseService) Providers() []domain.ProviderID {
	args := m.Called()
	return args.Get(0).([]domain.ProviderID)
}
