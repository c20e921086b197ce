package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// StatusStore persists per-document ingestion status.
type StatusStore interface {
	// Get returns the status of a document, or domain.ErrNotFound.
	Get(ctx context.Context, documentID string) (*domain.DocumentStatus, error)

	// Save upserts a status record by document ID.
	Save(ctx context.Context, status domain.DocumentStatus) error

	// List returns the statuses of a namespace ordered by document ID.
	List(ctx context.Context, namespace string) ([]domain.DocumentStatus, error)

	// Delete removes a status record. Deleting a missing record is not an error.
	Delete(ctx context.Context, documentID string) error
}
