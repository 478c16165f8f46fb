package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parsearena/internal/domain"
	"parsearena/internal/provider"
	"parsearena/mocks"
)

func mockAdapter(id domain.ProviderID) *mocks.MockProvider {
	return &mocks.MockProvider{ProviderID: id}
}

func TestNewRegistry_RejectsDuplicateID(t *testing.T) {
	_, err := provider.NewRegistry(
		mockAdapter(domain.ProviderReducto),
		mockAdapter(domain.ProviderReducto),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registered twice")
}

func TestRegistry_GetAndIDs(t *testing.T) {
	r, err := provider.NewRegistry(
		mockAdapter(domain.ProviderLlamaIndex),
		mockAdapter(domain.ProviderReducto),
	)
	require.NoError(t, err)

	p, ok := r.Get(domain.ProviderReducto)
	require.True(t, ok)
	assert.Equal(t, domain.ProviderReducto, p.ID())

	_, ok = r.Get(domain.ProviderExtendAI)
	assert.False(t, ok)

	assert.Equal(t, []domain.ProviderID{domain.ProviderLlamaIndex, domain.ProviderReducto}, r.IDs())
}

func TestRegistry_Resolve(t *testing.T) {
	r, err := provider.NewRegistry(
		mockAdapter(domain.ProviderLlamaIndex),
		mockAdapter(domain.ProviderReducto),
	)
	require.NoError(t, err)

	adapters, err := r.Resolve([]domain.ProviderID{domain.ProviderReducto, domain.ProviderLlamaIndex})
	require.NoError(t, err)
	require.Len(t, adapters, 2)
	assert.Equal(t, domain.ProviderReducto, adapters[0].ID())

	_, err = r.Resolve([]domain.ProviderID{domain.ProviderReducto, domain.ProviderUnstructured})
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}
