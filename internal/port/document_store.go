package port

import (
	"context"

	"parsearena/internal/domain"
)

// StoreInput carries the data needed to persist a new document.
type StoreInput struct {
	Ref          string
	OriginalName string
	ContentType  string
	Bytes        []byte
}

// DocumentStore resolves a stable document reference to byte content and
// page count for the lifetime of a job.
type DocumentStore interface {
	Store(ctx context.Context, input StoreInput) (*domain.Document, error)
	Fetch(ctx context.Context, ref string) (*domain.Document, error)
}
