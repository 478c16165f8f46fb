package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parsearena/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound, "DOCUMENT_NOT_FOUND", "document not found"
	case errors.Is(err, domain.ErrBattleNotFound):
		return http.StatusNotFound, "BATTLE_NOT_FOUND", "battle run not found"
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusBadRequest, "UNKNOWN_PROVIDER", "unknown provider id"
	case errors.Is(err, domain.ErrNoProvidersSelected):
		return http.StatusBadRequest, "NO_PROVIDERS_SELECTED", "at least one provider must be selected"
	case errors.Is(err, domain.ErrDuplicateProvider):
		return http.StatusBadRequest, "DUPLICATE_PROVIDER", "provider selected more than once"
	case errors.Is(err, domain.ErrInvalidTimeout):
		return http.StatusBadRequest, "INVALID_TIMEOUT", "timeout_secs must be greater than zero"
	case errors.Is(err, domain.ErrInvalidPageScope):
		return http.StatusBadRequest, "INVALID_PAGE_SCOPE", "page number is out of range for this document"
	case errors.Is(err, domain.ErrPoolTooSmall):
		return http.StatusBadRequest, "CONFIGURATION_ERROR", "battle pool must contain at least two providers"
	case errors.Is(err, domain.ErrFixedPairInvalid):
		return http.StatusBadRequest, "CONFIGURATION_ERROR", "fixed pair must name two distinct providers from the pool"
	case errors.Is(err, domain.ErrFeedbackAlreadyExists):
		return http.StatusConflict, "ALREADY_REVEALED", "feedback already submitted for this battle"
	case errors.Is(err, domain.ErrInvalidPreference):
		return http.StatusBadRequest, "INVALID_PREFERENCE", "preferred labels must be drawn from A, B, tie, none"
	case errors.Is(err, domain.ErrPricingUnavailable):
		return http.StatusNotFound, "PRICING_UNAVAILABLE", "pricing unavailable for this provider and selection"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file upload to storage failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}

// parsePagination reads offset/limit query params with sane bounds.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
