package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ContentStore persists raw content keyed by content ID.
//
// The store is the first of the two writes the indexer makes; an ID only
// becomes visible in the VectorIndex after PutMany has committed it here.
type ContentStore interface {
	// PutMany upserts records by ID. When some records fail it returns a
	// *domain.PutError naming them; the others are committed.
	PutMany(ctx context.Context, records []domain.ContentRecord) error

	// GetMany fetches records by ID. Missing IDs are absent from the result,
	// not an error.
	GetMany(ctx context.Context, ids []string) (map[string]domain.ContentRecord, error)

	// DeleteMany removes records by ID and returns how many existed.
	DeleteMany(ctx context.Context, ids []string) (int, error)

	// DeleteByDocument removes every record of one source document in a namespace.
	DeleteByDocument(ctx context.Context, namespace, documentID string) (int, error)

	// ListIDs lazily yields the IDs stored for a namespace in ascending order.
	// An empty namespace lists every ID.
	ListIDs(ctx context.Context, namespace string) iter.Seq2[string, error]

	// Close releases resources.
	Close() error
}
