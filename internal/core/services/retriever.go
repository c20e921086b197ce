package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// Retriever resolves similarity matches in one namespace to raw content.
// It is read-only against both stores and safe for concurrent use.
type Retriever struct {
	index     *SummaryIndex
	store     driven.ContentStore
	namespace string
}

// NewRetriever creates an unscoped retriever. Call Scoped before Retrieve.
func NewRetriever(index *SummaryIndex, store driven.ContentStore) *Retriever {
	return &Retriever{index: index, store: store}
}

// Scoped returns a retriever bound to a namespace.
func (r *Retriever) Scoped(namespace string) *Retriever {
	scoped := *r
	scoped.namespace = namespace
	return &scoped
}

// Namespace returns the bound namespace.
func (r *Retriever) Namespace() string {
	return r.namespace
}

// Retrieve searches the namespace for the query and returns the matching
// content records in similarity rank order. Matches without a content_id
// and IDs missing from the content store are skipped with a warning.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedRecord, error) {
	logger.Section("Retrieve")
	logger.Debug("Namespace: %s, k: %d, query: %q", r.namespace, k, query)

	if r.namespace == "" {
		return nil, fmt.Errorf("%w: retriever has no namespace", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.RetrievedRecord{}, nil
	}

	matches, err := r.index.SimilaritySearch(ctx, r.namespace, query, k)
	if err != nil {
		return nil, err
	}
	logger.Debug("Matches: %d", len(matches))
	if len(matches) == 0 {
		return []domain.RetrievedRecord{}, nil
	}

	type ranked struct {
		id    string
		score float64
	}
	order := make([]ranked, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		id := m.Metadata[domain.MetaContentID]
		if id == "" {
			logger.Warn("Dropping match %q in %s: no %s in metadata",
				m.ContentID, r.namespace, domain.MetaContentID)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, ranked{id: id, score: m.Score})
	}
	if len(order) == 0 {
		return []domain.RetrievedRecord{}, nil
	}

	ids := make([]string, len(order))
	for i, o := range order {
		ids[i] = o.id
	}
	fetched, err := r.store.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch content: %w", err)
	}

	results := make([]domain.RetrievedRecord, 0, len(order))
	var missing []string
	for _, o := range order {
		rec, ok := fetched[o.id]
		if !ok {
			missing = append(missing, o.id)
			continue
		}
		results = append(results, domain.RetrievedRecord{
			Record: rec,
			Score:  o.score,
			Rank:   len(results),
		})
	}
	if len(missing) > 0 {
		logger.Warn("Dangling vector(s) in %s pending reconciliation: %s",
			r.namespace, strings.Join(missing, ","))
	}

	logger.Debug("Resolved %d of %d match(es)", len(results), len(matches))
	return results, nil
}
