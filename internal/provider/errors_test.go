package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parsearena/internal/domain"
)

func TestFromStatus_Classification(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorKind
	}{
		{400, KindPermanent},
		{401, KindAuth},
		{403, KindAuth},
		{404, KindPermanent},
		{408, KindTransient},
		{422, KindPermanent},
		{429, KindTransient},
		{500, KindTransient},
		{502, KindTransient},
		{503, KindTransient},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("status %d", tc.status), func(t *testing.T) {
			err := FromStatus(domain.ProviderReducto, tc.status, []byte("body"), "")
			assert.Equal(t, tc.want, err.Kind)
			assert.Equal(t, domain.ProviderReducto, err.Provider)
			assert.Contains(t, err.Error(), "status")
		})
	}
}

func TestFromStatus_RateLimitCarriesRetryAfter(t *testing.T) {
	err := FromStatus(domain.ProviderLlamaIndex, 429, nil, "30")
	assert.Equal(t, KindTransient, err.Kind)
	assert.Equal(t, 30*time.Second, err.RetryAfter)

	// Default when the header is missing or unparseable.
	err = FromStatus(domain.ProviderLlamaIndex, 429, nil, "")
	assert.Equal(t, 60*time.Second, err.RetryAfter)
	err = FromStatus(domain.ProviderLlamaIndex, 429, nil, "soon")
	assert.Equal(t, 60*time.Second, err.RetryAfter)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAuth, KindOf(NewAuth(domain.ProviderReducto, errors.New("denied"))))
	assert.Equal(t, KindPermanent, KindOf(NewPermanent(domain.ProviderReducto, errors.New("bad input"))))
	assert.Equal(t, KindTransient, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindTransient, KindOf(errors.New("mystery")))

	// Wrapped classified errors still surface their kind.
	wrapped := fmt.Errorf("calling upstream: %w", NewAuth(domain.ProviderReducto, errors.New("denied")))
	assert.Equal(t, KindAuth, KindOf(wrapped))
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := NewTransient(domain.ProviderExtendAI, inner)
	require.ErrorIs(t, err, inner)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, ParseRetryAfterHeader(""))
	assert.Equal(t, 0, ParseRetryAfterHeader("tomorrow"))
	assert.Equal(t, 120, ParseRetryAfterHeader("120"))
}
