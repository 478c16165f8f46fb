package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"parsearena/internal/domain"
	"parsearena/internal/service"
)

// DocumentHandler handles document upload and lookup endpoints.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// documentView is the metadata shape returned for a document; raw bytes
// never leave the server.
type documentView struct {
	Ref          string `json:"ref"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	PageCount    int    `json:"page_count"`
}

func viewOf(doc *domain.Document) documentView {
	return documentView{
		Ref:          doc.Ref,
		OriginalName: doc.OriginalName,
		ContentType:  doc.ContentType,
		PageCount:    doc.PageCount,
	}
}

// Upload handles POST /api/v1/documents
// @Summary Upload a document
// @Description Upload a PDF for later comparison jobs; returns the document reference and page count
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Success 201 {object} APIResponse "Document reference and page count"
// @Failure 400 {object} APIResponse "Unsupported file type"
// @Failure 413 {object} APIResponse "File too large"
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot read uploaded file")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	doc, err := h.documentService.Upload(c.Request.Context(), &service.UploadDocumentInput{
		OriginalName: fileHeader.Filename,
		ContentType:  contentType,
		Bytes:        data,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, viewOf(doc))
}

// GetByRef handles GET /api/v1/documents/:ref
// @Summary Get document metadata
// @Description Document metadata including page count
// @Tags documents
// @Produce json
// @Param ref path string true "Document reference"
// @Success 200 {object} APIResponse "Document metadata"
// @Failure 404 {object} APIResponse "Document not found"
// @Router /documents/{ref} [get]
func (h *DocumentHandler) GetByRef(c *gin.Context) {
	doc, err := h.documentService.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, viewOf(doc))
}
