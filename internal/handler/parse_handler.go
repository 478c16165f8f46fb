package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"parsearena/internal/domain"
	"parsearena/internal/orchestrator"
	"parsearena/internal/service"
)

// ParseHandler handles comparison and cost endpoints.
type ParseHandler struct {
	parseService service.ParseService
}

// NewParseHandler creates a new ParseHandler.
func NewParseHandler(parseService service.ParseService) *ParseHandler {
	return &ParseHandler{parseService: parseService}
}

// CompareRequest is the body for comparison endpoints.
type CompareRequest struct {
	DocumentRef string              `json:"document_ref" binding:"required"`
	Providers   []domain.ProviderID `json:"providers" binding:"required"`
	Mode        domain.ParseMode    `json:"mode"`
	PageNumber  int                 `json:"page_number"`
	TimeoutSecs int                 `json:"timeout_secs" binding:"required"`
	Options     domain.ParseOptions `json:"options"`
}

func (r *CompareRequest) input() *service.CompareInput {
	return &service.CompareInput{
		DocumentRef: r.DocumentRef,
		Providers:   r.Providers,
		Options:     r.Options,
		Mode:        r.Mode,
		PageNumber:  r.PageNumber,
		TimeoutSecs: r.TimeoutSecs,
	}
}

func validMode(m domain.ParseMode) bool {
	return m == "" || m == domain.ModeSinglePage || m == domain.ModeFullDocument
}

// Compare handles POST /api/v1/parse/compare
// @Summary Run a comparison
// @Description Parse a document with the selected providers concurrently and return every terminal outcome with cost breakdowns
// @Tags parse
// @Accept json
// @Produce json
// @Param request body CompareRequest true "Comparison job"
// @Success 200 {object} APIResponse{data=service.CompareOutput} "Terminal results"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 404 {object} APIResponse "Document not found"
// @Router /parse/compare [post]
func (h *ParseHandler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document_ref, providers, and timeout_secs are required")
		return
	}
	if !validMode(req.Mode) {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "mode must be 'single_page' or 'full_document'")
		return
	}

	out, err := h.parseService.Compare(c.Request.Context(), req.input())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, out)
}

// CompareStream handles POST /api/v1/parse/compare/stream
// @Summary Run a comparison with streamed progress
// @Description SSE stream: started, one progress per provider in completion order, then completed; fatal_error only when the job cannot start at all
// @Tags parse
// @Accept json
// @Produce text/event-stream
// @Param request body CompareRequest true "Comparison job"
// @Router /parse/compare/stream [post]
func (h *ParseHandler) CompareStream(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document_ref, providers, and timeout_secs are required")
		return
	}
	if !validMode(req.Mode) {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "mode must be 'single_page' or 'full_document'")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	start, err := h.parseService.CompareStream(c.Request.Context(), req.input())
	if err != nil {
		// The job never started; this is the only fatal stream error.
		status, code, msg := MapDomainError(err)
		c.SSEvent("fatal_error", gin.H{"status": status, "code": code, "message": msg})
		return
	}

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-start.Events
		if !ok {
			return false
		}
		switch ev.Type {
		case orchestrator.EventStarted:
			c.SSEvent("started", gin.H{
				"job_id":    start.Job.ID,
				"providers": ev.Providers,
			})
		case orchestrator.EventProgress:
			c.SSEvent("progress", gin.H{
				"provider": ev.Provider,
				"status":   ev.Status,
				"outcome":  ev.Outcome,
				"cost":     h.parseService.CostOf(ev.Outcome, req.Options),
			})
		case orchestrator.EventCompleted:
			costs := make(map[domain.ProviderID]domain.CostBreakdown, len(ev.Results))
			for id, outcome := range ev.Results {
				costs[id] = h.parseService.CostOf(outcome, req.Options)
			}
			c.SSEvent("completed", gin.H{
				"job_id":  start.Job.ID,
				"results": ev.Results,
				"costs":   costs,
			})
		}
		return true
	})
}

// CostRequest is the body for standalone cost estimates.
type CostRequest struct {
	Providers []domain.ProviderID `json:"providers" binding:"required"`
	Pages     int                 `json:"pages" binding:"required"`
	Options   domain.ParseOptions `json:"options"`
}

// Cost handles POST /api/v1/parse/cost
// @Summary Estimate parse cost
// @Description Compute cost breakdowns for a page count against the static pricing table
// @Tags parse
// @Accept json
// @Produce json
// @Param request body CostRequest true "Cost estimate"
// @Success 200 {object} APIResponse{data=[]domain.CostBreakdown} "Breakdowns"
// @Failure 400 {object} APIResponse "Invalid request"
// @Router /parse/cost [post]
func (h *ParseHandler) Cost(c *gin.Context) {
	var req CostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "providers and pages are required")
		return
	}

	breakdowns, err := h.parseService.Cost(c.Request.Context(), &service.CostInput{
		Providers: req.Providers,
		Options:   req.Options,
		Pages:     req.Pages,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, breakdowns)
}

// Providers handles GET /api/v1/providers
// @Summary List providers
// @Description Known provider ids in display order
// @Tags parse
// @Produce json
// @Success 200 {object} APIResponse{data=[]string} "Provider ids"
// @Router /providers [get]
func (h *ParseHandler) Providers(c *gin.Context) {
	RespondOK(c, h.parseService.Providers())
}
