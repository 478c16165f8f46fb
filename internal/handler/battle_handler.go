package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parsearena/internal/csvexport"
	"parsearena/internal/domain"
	"parsearena/internal/service"
)

// BattleHandler handles blind battle endpoints.
type BattleHandler struct {
	battleService service.BattleService
}

// NewBattleHandler creates a new BattleHandler.
func NewBattleHandler(battleService service.BattleService) *BattleHandler {
	return &BattleHandler{battleService: battleService}
}

// CreateBattleRequest is the body for battle creation.
type CreateBattleRequest struct {
	DocumentRef string              `json:"document_ref" binding:"required"`
	PageNumber  int                 `json:"page_number"`
	Pool        []domain.ProviderID `json:"pool"`
	FixedPair   []domain.ProviderID `json:"fixed_pair"`
	Options     domain.ParseOptions `json:"options"`
}

// Create handles POST /api/v1/battles
// @Summary Start a blind battle
// @Description Draw two providers, parse one page with both, and return blind-labeled results
// @Tags battles
// @Accept json
// @Produce json
// @Param request body CreateBattleRequest true "Battle configuration"
// @Success 201 {object} APIResponse{data=service.CreateBattleOutput} "Blind results"
// @Failure 400 {object} APIResponse "Invalid configuration"
// @Failure 404 {object} APIResponse "Document not found"
// @Router /battles [post]
func (h *BattleHandler) Create(c *gin.Context) {
	var req CreateBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document_ref is required")
		return
	}

	out, err := h.battleService.Create(c.Request.Context(), &service.CreateBattleInput{
		DocumentRef: req.DocumentRef,
		PageNumber:  req.PageNumber,
		Pool:        req.Pool,
		FixedPair:   req.FixedPair,
		Options:     req.Options,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, out)
}

// FeedbackRequest is the body for battle feedback.
type FeedbackRequest struct {
	PreferredLabels []domain.PreferredLabel `json:"preferred_labels" binding:"required"`
	Comment         string                  `json:"comment"`
}

// SubmitFeedback handles POST /api/v1/battles/:id/feedback
// @Summary Submit battle feedback
// @Description Record the verdict once and reveal which provider was behind each label
// @Tags battles
// @Accept json
// @Produce json
// @Param id path string true "Battle ID (UUID)"
// @Param request body FeedbackRequest true "Verdict"
// @Success 200 {object} APIResponse{data=service.FeedbackOutput} "Revealed assignments"
// @Failure 400 {object} APIResponse "Invalid verdict"
// @Failure 404 {object} APIResponse "Battle not found"
// @Failure 409 {object} APIResponse "Feedback already submitted"
// @Router /battles/{id}/feedback [post]
func (h *BattleHandler) SubmitFeedback(c *gin.Context) {
	battleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid battle ID")
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "preferred_labels is required")
		return
	}

	out, err := h.battleService.SubmitFeedback(c.Request.Context(), &service.FeedbackInput{
		BattleID:        battleID,
		PreferredLabels: req.PreferredLabels,
		Comment:         req.Comment,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, out)
}

// List handles GET /api/v1/battles
// @Summary List battle history
// @Description Paginated battles in reverse chronological order; winners only on revealed battles
// @Tags battles
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]service.HistoryEntry,meta=PagMeta} "Battle history"
// @Router /battles [get]
func (h *BattleHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	out, err := h.battleService.History(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, out.Battles, PagMeta{Total: out.Total, Offset: out.Offset, Limit: out.Limit})
}

// GetByID handles GET /api/v1/battles/:id
// @Summary Get battle detail
// @Description Per-label results; providers stay hidden until the battle is revealed
// @Tags battles
// @Produce json
// @Param id path string true "Battle ID (UUID)"
// @Success 200 {object} APIResponse{data=service.BattleDetail} "Battle detail"
// @Failure 404 {object} APIResponse "Battle not found"
// @Router /battles/{id} [get]
func (h *BattleHandler) GetByID(c *gin.Context) {
	battleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid battle ID")
		return
	}

	detail, err := h.battleService.Detail(c.Request.Context(), battleID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, detail)
}

// Export handles GET /api/v1/battles/export
// @Summary Export battle history as CSV
// @Description Full battle history; unrevealed battles stay blind in the export
// @Tags battles
// @Produce text/csv
// @Success 200 {string} string "CSV file"
// @Router /battles/export [get]
func (h *BattleHandler) Export(c *gin.Context) {
	filename := csvexport.BuildFilename("battle_history")
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.battleService.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		// Headers are already written; all we can do is abort the stream.
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
