package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"parsearena/internal/domain"
	"parsearena/internal/port"
)

// UploadDocumentInput is the DTO for uploading a document.
type UploadDocumentInput struct {
	OriginalName string
	ContentType  string
	Bytes        []byte
}

// DocumentService defines the document upload and lookup contract.
type DocumentService interface {
	Upload(ctx context.Context, input *UploadDocumentInput) (*domain.Document, error)
	Get(ctx context.Context, ref string) (*domain.Document, error)
}

type documentService struct {
	store        port.DocumentStore
	maxSizeBytes int64
}

// NewDocumentService creates a new DocumentService implementation.
// maxFileSizeMB of zero disables the size check.
func NewDocumentService(store port.DocumentStore, maxFileSizeMB int64) DocumentService {
	return &documentService{
		store:        store,
		maxSizeBytes: maxFileSizeMB * 1024 * 1024,
	}
}

func (s *documentService) Upload(ctx context.Context, input *UploadDocumentInput) (*domain.Document, error) {
	if !strings.EqualFold(input.ContentType, "application/pdf") {
		return nil, domain.ErrUnsupportedFileType
	}
	if s.maxSizeBytes > 0 && int64(len(input.Bytes)) > s.maxSizeBytes {
		return nil, domain.ErrFileTooLarge
	}

	ref := uuid.New().String()
	doc, err := s.store.Store(ctx, port.StoreInput{
		Ref:          ref,
		OriginalName: input.OriginalName,
		ContentType:  input.ContentType,
		Bytes:        input.Bytes,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("documentService.Upload: stored document %s (%s, %d pages, %d bytes)",
		ref, input.OriginalName, doc.PageCount, len(input.Bytes))
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, ref string) (*domain.Document, error) {
	return s.store.Fetch(ctx, ref)
}
