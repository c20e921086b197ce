package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Indexer writes one modality group of a document: raw content to the
// ContentStore and summary embeddings to the VectorIndex, linked by a fresh
// content ID per item.
//
// Writes are ordered. The content store write happens first and must
// succeed for an item before its vector is written, so every ID visible in
// the index resolves. A failed vector write leaves unreferenced content
// records behind; they are logged and left for Reconciler.
type Indexer struct {
	store driven.ContentStore
	index *SummaryIndex
	newID func() string
}

// NewIndexer creates an indexer.
func NewIndexer(store driven.ContentStore, index *SummaryIndex) *Indexer {
	return &Indexer{
		store: store,
		index: index,
		newID: func() string { return uuid.New().String() },
	}
}

// IndexBatch indexes parallel slices of summaries and raw contents under
// the given provenance and returns the content IDs written to both stores.
// Raw contents are strings (text or base64 images) or tables.
func (ix *Indexer) IndexBatch(
	ctx context.Context, summaries []string, raws []any, provenance domain.Metadata,
) ([]string, error) {
	if len(summaries) == 0 || len(summaries) != len(raws) {
		return nil, fmt.Errorf("%w: %d summaries for %d contents",
			domain.ErrInvalidInput, len(summaries), len(raws))
	}
	if provenance.TenantIndexName == "" {
		return nil, fmt.Errorf("%w: tenant_index_name is required", domain.ErrInvalidInput)
	}
	namespace := provenance.TenantIndexName

	// Embedding is not a write; do it first so a model failure touches nothing.
	vectors, err := ix.index.EmbedSummaries(ctx, summaries)
	if err != nil {
		return nil, err
	}

	// A namespace with another dimensionality is a configuration error;
	// catch it before anything is written.
	if err := ix.index.Prepare(ctx, namespace); err != nil {
		return nil, err
	}

	records := make([]domain.ContentRecord, len(raws))
	for i, raw := range raws {
		meta := provenance
		if meta.Modality == "" {
			meta.Modality = Classify(raw).Modality()
		}
		records[i] = domain.ContentRecord{ID: ix.newID(), Raw: raw, Metadata: meta}
	}

	// 1. CONTENT STORE
	var failed map[string]bool
	putErr := ix.store.PutMany(ctx, records)
	if putErr != nil {
		var partial *domain.PutError
		if !errors.As(putErr, &partial) {
			return nil, fmt.Errorf("write content: %w", putErr)
		}
		failed = partial.Failed()
		logger.Warn("Content store rejected %d of %d record(s) for %s",
			len(failed), len(records), provenance.SourceDocumentID)
	}

	// 2. VECTOR INDEX (only for committed records)
	entries := make([]domain.VectorEntry, 0, len(records))
	ids := make([]string, 0, len(records))
	for i, rec := range records {
		if failed[rec.ID] {
			continue
		}
		entries = append(entries, domain.VectorEntry{
			ContentID: rec.ID,
			Vector:    vectors[i],
			Metadata:  domain.EntryMetadata(rec.ID, rec.Metadata),
		})
		ids = append(ids, rec.ID)
	}

	if len(entries) > 0 {
		if err := ix.index.Upsert(ctx, namespace, entries); err != nil {
			logger.Warn("Orphaned content record(s) in %s pending reconciliation: %s",
				namespace, strings.Join(ids, ","))
			return nil, err
		}
	}
	logger.Debug("Indexed %d item(s) into %s", len(ids), namespace)

	if putErr != nil {
		return ids, fmt.Errorf("write content: %w", putErr)
	}
	return ids, nil
}
