package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// VectorIndex stores summary embeddings partitioned by tenant namespace.
//
// A namespace is created lazily with a fixed dimensionality. Writing or
// searching with a vector of another length returns domain.ErrDimensionMismatch.
type VectorIndex interface {
	// EnsureNamespace creates the namespace if needed. If it already exists
	// with a different dimensionality, it returns domain.ErrDimensionMismatch.
	EnsureNamespace(ctx context.Context, namespace string, dimensions int) error

	// Upsert writes entries into a namespace created by EnsureNamespace.
	Upsert(ctx context.Context, namespace string, entries []domain.VectorEntry) error

	// Search returns at most k matches ordered by score descending,
	// ties broken by ascending content ID. Searching a namespace that does
	// not exist yet returns no matches.
	Search(ctx context.Context, namespace string, query []float32, k int) ([]domain.VectorMatch, error)

	// Delete removes entries by content ID.
	Delete(ctx context.Context, namespace string, contentIDs []string) error

	// DeleteByDocument removes the entries of one source document and returns their IDs.
	DeleteByDocument(ctx context.Context, namespace, documentID string) ([]string, error)

	// ListIDs lazily yields the content IDs in a namespace in ascending order.
	ListIDs(ctx context.Context, namespace string) iter.Seq2[string, error]

	// Close releases resources.
	Close() error
}
