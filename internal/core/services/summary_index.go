package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// SummaryIndex pairs a VectorIndex with the embedding model that fills it,
// so callers index and search with text. Every namespace it touches is
// created with the embedding model's dimensionality.
type SummaryIndex struct {
	index    driven.VectorIndex
	embedder driven.EmbeddingService

	mu    sync.Mutex
	ready map[string]bool
}

// NewSummaryIndex creates a summary index.
func NewSummaryIndex(index driven.VectorIndex, embedder driven.EmbeddingService) *SummaryIndex {
	return &SummaryIndex{
		index:    index,
		embedder: embedder,
		ready:    make(map[string]bool),
	}
}

// Dimensions returns the dimensionality of the embedding model.
func (s *SummaryIndex) Dimensions() int {
	return s.embedder.Dimensions()
}

// EmbedSummaries embeds summaries in order and checks their dimensionality.
func (s *SummaryIndex) EmbedSummaries(ctx context.Context, summaries []string) ([][]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	vectors, err := s.embedder.EmbedBatch(ctx, summaries)
	if err != nil {
		return nil, fmt.Errorf("embed summaries: %w", err)
	}
	if len(vectors) != len(summaries) {
		return nil, fmt.Errorf("embed summaries: got %d vectors for %d inputs", len(vectors), len(summaries))
	}
	for i, v := range vectors {
		if err := s.checkDimensions(v); err != nil {
			return nil, fmt.Errorf("summary %d: %w", i, err)
		}
	}
	return vectors, nil
}

// Prepare creates the namespace with the model's dimensionality, or fails
// with domain.ErrDimensionMismatch if it exists with another.
func (s *SummaryIndex) Prepare(ctx context.Context, namespace string) error {
	return s.ensureNamespace(ctx, namespace)
}

// Upsert ensures the namespace exists and writes the entries.
func (s *SummaryIndex) Upsert(ctx context.Context, namespace string, entries []domain.VectorEntry) error {
	if err := s.ensureNamespace(ctx, namespace); err != nil {
		return err
	}
	if err := s.index.Upsert(ctx, namespace, entries); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// SimilaritySearch embeds the query and returns at most k matches from one
// namespace, ordered by score descending.
func (s *SummaryIndex) SimilaritySearch(
	ctx context.Context, namespace, query string, k int,
) ([]domain.VectorMatch, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := s.checkDimensions(vector); err != nil {
		return nil, err
	}
	logger.Debug("Query embedded: %d dimensions (model %s)", len(vector), s.embedder.ModelName())

	matches, err := s.index.Search(ctx, namespace, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return matches, nil
}

func (s *SummaryIndex) checkDimensions(v []float32) error {
	if want := s.embedder.Dimensions(); len(v) != want {
		return fmt.Errorf("%w: model %s returned %d, want %d",
			domain.ErrDimensionMismatch, s.embedder.ModelName(), len(v), want)
	}
	return nil
}

func (s *SummaryIndex) ensureNamespace(ctx context.Context, namespace string) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	s.mu.Lock()
	ready := s.ready[namespace]
	s.mu.Unlock()
	if ready {
		return nil
	}

	// EnsureNamespace is idempotent, so racing callers are harmless.
	if err := s.index.EnsureNamespace(ctx, namespace, s.embedder.Dimensions()); err != nil {
		return fmt.Errorf("ensure namespace %q: %w", namespace, err)
	}

	s.mu.Lock()
	s.ready[namespace] = true
	s.mu.Unlock()
	return nil
}
