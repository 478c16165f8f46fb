package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parsearena/internal/domain"
	"parsearena/internal/handler"
	"parsearena/internal/service"
	"parsearena/mocks"
)

func newDocumentHandler() (*handler.DocumentHandler, *mocks.MockDocumentService) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc)
	return h, mockSvc
}

func multipartPDF(t *testing.T, filename string, content []byte) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	return w, c
}

func TestDocumentHandler_Upload_Success(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in *service.UploadDocumentInput) bool {
		return in.OriginalName == "contract.pdf" && in.ContentType == "application/pdf" && len(in.Bytes) > 0
	})).Return(&domain.Document{
		Ref:          "ref-123",
		OriginalName: "contract.pdf",
		ContentType:  "application/pdf",
		PageCount:    4,
		Bytes:        []byte("%PDF-1.7"),
	}, nil)

	w, c := multipartPDF(t, "contract.pdf", []byte("%PDF-1.7 fake"))
	h.Upload(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"ref":"ref-123"`)
	assert.Contains(t, body, `"page_count":4`)
	// Raw bytes never leave the server.
	assert.NotContains(t, body, "%PDF")
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Upload_MissingFile(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", http.NoBody)
	c.Request.Header.Set("Content-Type", "multipart/form-data")
	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestDocumentHandler_Upload_FileTooLarge(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, domain.ErrFileTooLarge)

	w, c := multipartPDF(t, "huge.pdf", []byte("%PDF-1.7 pretend this is huge"))
	h.Upload(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestDocumentHandler_GetByRef(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Get", mock.Anything, "ref-123").Return(&domain.Document{
		Ref:          "ref-123",
		OriginalName: "contract.pdf",
		ContentType:  "application/pdf",
		PageCount:    4,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/ref-123", http.NoBody)
	c.Params = gin.Params{{Key: "ref", Value: "ref-123"}}
	h.GetByRef(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contract.pdf")
}

func TestDocumentHandler_GetByRef_NotFound(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Get", mock.Anything, "nope").Return(nil, domain.ErrDocumentNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/nope", http.NoBody)
	c.Params = gin.Params{{Key: "ref", Value: "nope"}}
	h.GetByRef(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
