package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parsearena/internal/domain"
	"parsearena/internal/handler"
	"parsearena/internal/orchestrator"
	"parsearena/internal/service"
	"parsearena/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newParseHandler() (*handler.ParseHandler, *mocks.MockParseService) {
	mockSvc := new(mocks.MockParseService)
	h := handler.NewParseHandler(mockSvc)
	return h, mockSvc
}

func postJSON(t *testing.T, path string, payload any) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

// streamRecorder adds the CloseNotify method gin's Stream helper expects
// from the underlying writer.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func postStream(t *testing.T, path string, payload any) (*streamRecorder, *gin.Context) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := &streamRecorder{httptest.NewRecorder(), make(chan bool, 1)}
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

// --- Compare ---

func TestParseHandler_Compare_Success(t *testing.T) {
	h, mockSvc := newParseHandler()

	jobID := uuid.New()
	expected := &service.CompareOutput{
		JobID:       jobID,
		DocumentRef: "doc-1",
		PageCount:   4,
		Results: domain.ParseResultSet{
			domain.ProviderReducto: {Provider: domain.ProviderReducto, Status: domain.OutcomeSuccess},
			domain.ProviderExtendAI: {
				Provider: domain.ProviderExtendAI,
				Status:   domain.OutcomeError,
				Error:    &domain.OutcomeFailure{Kind: "transient", Message: "timed out"},
			},
		},
		Costs: map[domain.ProviderID]domain.CostBreakdown{
			domain.ProviderReducto:  {Provider: domain.ProviderReducto, Available: true, TotalUSD: 0.02},
			domain.ProviderExtendAI: {Provider: domain.ProviderExtendAI, Available: false},
		},
	}

	mockSvc.On("Compare", mock.Anything, mock.MatchedBy(func(in *service.CompareInput) bool {
		return in.DocumentRef == "doc-1" && len(in.Providers) == 2 && in.TimeoutSecs == 30
	})).Return(expected, nil)

	w, c := postJSON(t, "/api/v1/parse/compare", map[string]any{
		"document_ref": "doc-1",
		"providers":    []string{"reducto", "extendai"},
		"page_number":  1,
		"timeout_secs": 30,
	})
	h.Compare(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	// Partial failure is a 200 with the errored provider still present.
	data, _ := json.Marshal(resp.Data)
	assert.Contains(t, string(data), `"status":"error"`)
	mockSvc.AssertExpectations(t)
}

func TestParseHandler_Compare_MissingTimeout(t *testing.T) {
	h, mockSvc := newParseHandler()

	w, c := postJSON(t, "/api/v1/parse/compare", map[string]any{
		"document_ref": "doc-1",
		"providers":    []string{"reducto"},
	})
	h.Compare(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Compare", mock.Anything, mock.Anything)
}

func TestParseHandler_Compare_InvalidMode(t *testing.T) {
	h, _ := newParseHandler()

	w, c := postJSON(t, "/api/v1/parse/compare", map[string]any{
		"document_ref": "doc-1",
		"providers":    []string{"reducto"},
		"mode":         "every_other_page",
		"timeout_secs": 30,
	})
	h.Compare(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseHandler_Compare_DocumentNotFound(t *testing.T) {
	h, mockSvc := newParseHandler()

	mockSvc.On("Compare", mock.Anything, mock.Anything).Return(nil, domain.ErrDocumentNotFound)

	w, c := postJSON(t, "/api/v1/parse/compare", map[string]any{
		"document_ref": "missing",
		"providers":    []string{"reducto"},
		"timeout_secs": 30,
	})
	h.Compare(c)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "DOCUMENT_NOT_FOUND", resp.Error.Code)
}

// --- CompareStream ---

func TestParseHandler_CompareStream_EmitsEventSequence(t *testing.T) {
	h, mockSvc := newParseHandler()

	jobID := uuid.New()
	outcome := &domain.ProviderOutcome{
		Provider: domain.ProviderReducto,
		Status:   domain.OutcomeSuccess,
		Usage:    domain.Usage{Pages: 1},
		Duration: 120 * time.Millisecond,
	}
	events := make(chan orchestrator.Event, 3)
	events <- orchestrator.Event{Type: orchestrator.EventStarted, Providers: []domain.ProviderID{domain.ProviderReducto}}
	events <- orchestrator.Event{Type: orchestrator.EventProgress, Provider: domain.ProviderReducto, Status: domain.OutcomeSuccess, Outcome: outcome}
	events <- orchestrator.Event{Type: orchestrator.EventCompleted, Results: domain.ParseResultSet{domain.ProviderReducto: outcome}}
	close(events)

	mockSvc.On("CompareStream", mock.Anything, mock.Anything).Return(&service.StreamStart{
		Job:    &domain.ParseJob{ID: jobID},
		Events: events,
	}, nil)
	mockSvc.On("CostOf", outcome, mock.Anything).Return(domain.CostBreakdown{
		Provider: domain.ProviderReducto, Available: true, TotalUSD: 0.02,
	})

	w, c := postStream(t, "/api/v1/parse/compare/stream", map[string]any{
		"document_ref": "doc-1",
		"providers":    []string{"reducto"},
		"timeout_secs": 30,
	})
	h.CompareStream(c)

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	// Events arrive in order: started, progress, completed.
	started := bytes.Index([]byte(body), []byte("event:started"))
	progress := bytes.Index([]byte(body), []byte("event:progress"))
	completed := bytes.Index([]byte(body), []byte("event:completed"))
	require.GreaterOrEqual(t, started, 0)
	assert.Greater(t, progress, started)
	assert.Greater(t, completed, progress)
	assert.Contains(t, body, jobID.String())
	assert.NotContains(t, body, "fatal_error")
}

func TestParseHandler_CompareStream_FatalWhenNothingDispatched(t *testing.T) {
	h, mockSvc := newParseHandler()

	mockSvc.On("CompareStream", mock.Anything, mock.Anything).Return(nil, domain.ErrUnknownProvider)

	w, c := postStream(t, "/api/v1/parse/compare/stream", map[string]any{
		"document_ref": "doc-1",
		"providers":    []string{"doctopus"},
		"timeout_secs": 30,
	})
	h.CompareStream(c)

	body := w.Body.String()
	assert.Contains(t, body, "event:fatal_error")
	assert.NotContains(t, body, "event:started")
}

// --- Cost ---

func TestParseHandler_Cost_Success(t *testing.T) {
	h, mockSvc := newParseHandler()

	mockSvc.On("Cost", mock.Anything, mock.MatchedBy(func(in *service.CostInput) bool {
		return in.Pages == 12 && len(in.Providers) == 1
	})).Return([]domain.CostBreakdown{
		{Provider: domain.ProviderReducto, Available: true, TotalCredits: 12, TotalUSD: 0.24},
	}, nil)

	w, c := postJSON(t, "/api/v1/parse/cost", map[string]any{
		"providers": []string{"reducto"},
		"pages":     12,
	})
	h.Cost(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestParseHandler_Cost_UnknownProvider(t *testing.T) {
	h, mockSvc := newParseHandler()

	mockSvc.On("Cost", mock.Anything, mock.Anything).Return(nil, domain.ErrUnknownProvider)

	w, c := postJSON(t, "/api/v1/parse/cost", map[string]any{
		"providers": []string{"doctopus"},
		"pages":     3,
	})
	h.Cost(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Providers ---

func TestParseHandler_Providers(t *testing.T) {
	h, mockSvc := newParseHandler()

	mockSvc.On("Providers").Return(domain.KnownProviders)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/providers", http.NoBody)
	h.Providers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	for _, id := range domain.KnownProviders {
		assert.Contains(t, w.Body.String(), string(id))
	}
}
