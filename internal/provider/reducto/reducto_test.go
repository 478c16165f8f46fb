package reducto_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parsearena/internal/config"
	"parsearena/internal/domain"
	"parsearena/internal/port"
	"parsearena/internal/provider"
	"parsearena/internal/provider/reducto"
)

func newTestClient(serverURL string) *reducto.Client {
	return reducto.New(&config.ProviderConfig{
		APIKey:      "test-reducto-key",
		BaseURL:     serverURL,
		TimeoutSecs: 30,
	})
}

func testInput(page int) port.ParseInput {
	return port.ParseInput{
		Document: &domain.Document{
			Ref:          "doc-1",
			OriginalName: "contract.pdf",
			ContentType:  "application/pdf",
			PageCount:    4,
			Bytes:        []byte("%PDF-1.7 fake"),
		},
		Mode:       domain.ModeSinglePage,
		PageNumber: page,
	}
}

func successResponse() map[string]any {
	return map[string]any{
		"result": map[string]any{
			"chunks": []map[string]any{
				{
					"blocks": []map[string]any{
						{"type": "text", "content": "first block", "bbox": map[string]any{"page": 2}},
						{"type": "table", "content": "| a | b |", "bbox": map[string]any{"page": 2}},
					},
				},
			},
		},
		"usage": map[string]any{"num_pages": 1, "credits": 2.0},
	}
}

func TestReductoParse_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/parse", r.URL.Path)
		assert.Equal(t, "Bearer test-reducto-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Contains(t, reqBody["document_url"], "data:application/pdf;base64,")

		opts := reqBody["options"].(map[string]any)
		assert.Equal(t, "complex", opts["extraction_mode"])

		advanced := reqBody["advanced_options"].(map[string]any)
		pageRange := advanced["page_range"].(map[string]any)
		assert.Equal(t, float64(2), pageRange["start"])
		assert.Equal(t, float64(2), pageRange["end"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse())
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	input := testInput(2)
	input.Options = &domain.ReductoOptions{Mode: "complex"}

	outcome, err := c.Parse(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderReducto, outcome.Provider)
	assert.Equal(t, 1, outcome.Usage.Pages)
	assert.InDelta(t, 2.0, outcome.Usage.Credits, 1e-9)
	require.Len(t, outcome.Pages, 1)
	assert.Equal(t, 2, outcome.Pages[0].PageNumber)
	assert.Equal(t, "first block\n\n| a | b |", outcome.Pages[0].Content)
}

func TestReductoParse_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Parse(context.Background(), testInput(1))
	require.Error(t, err)
	assert.Equal(t, provider.KindAuth, provider.KindOf(err))
}

func TestReductoParse_RateLimitCarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Parse(context.Background(), testInput(1))
	require.Error(t, err)
	assert.Equal(t, provider.KindTransient, provider.KindOf(err))

	var pe *provider.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 30*time.Second, pe.RetryAfter)
}

func TestReductoParse_NetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	_, err := newTestClient(server.URL).Parse(context.Background(), testInput(1))
	require.Error(t, err)
	assert.Equal(t, provider.KindTransient, provider.KindOf(err))
}
