package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"parsearena/internal/domain"
	"parsearena/internal/port"
)

// MockProvider is a mock implementation of port.Provider.
type MockProvider struct {
	mock.Mock

	// ProviderID is returned by ID(); set it instead of stubbing.
	ProviderID domain.ProviderID
}

func (m *MockProvider) ID() domain.ProviderID {
	return m.ProviderID
}

func (m *MockProvider) Parse(ctx context.Context, input port.ParseInput) (*domain.ProviderOutcome, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderOutcome), args.Error(1)
}
