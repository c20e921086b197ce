package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// IngestionService indexes extracted documents.
type IngestionService interface {
	// Ingest indexes one document. A document already marked SUCCESS is
	// skipped and its status returned with domain.ErrAlreadyIngested.
	Ingest(ctx context.Context, doc domain.ExtractedDocument) (*domain.DocumentStatus, error)

	// IngestMany indexes documents independently; one failure does not
	// abort the others. The returned statuses follow input order.
	IngestMany(ctx context.Context, docs []domain.ExtractedDocument) ([]domain.DocumentStatus, error)
}

// DocumentService manages documents after ingestion.
type DocumentService interface {
	// Status returns the ingestion status of a document.
	Status(ctx context.Context, documentID string) (*domain.DocumentStatus, error)

	// List returns the statuses of every document in a namespace.
	List(ctx context.Context, namespace string) ([]domain.DocumentStatus, error)

	// Delete removes a document's vectors, content records and status.
	Delete(ctx context.Context, namespace, documentID string) (*DeleteResult, error)
}

// DeleteResult reports what a cascade delete removed.
type DeleteResult struct {
	VectorsDeleted int
	RecordsDeleted int
}
