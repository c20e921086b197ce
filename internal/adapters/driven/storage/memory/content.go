// Package memory provides in-process implementations of the storage ports.
// They back the "memory" storage backend and the service tests.
package memory

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure ContentStore implements the interface.
var _ driven.ContentStore = (*ContentStore)(nil)

// ContentStore is an in-memory implementation of driven.ContentStore.
// Raw content is kept in its serialised form, so values read back are
// exactly what a database-backed store would return.
type ContentStore struct {
	mu      sync.RWMutex
	records map[string]storedRecord
}

type storedRecord struct {
	raw  []byte
	meta domain.Metadata
}

// NewContentStore creates a new in-memory content store.
func NewContentStore() *ContentStore {
	return &ContentStore{records: make(map[string]storedRecord)}
}

// PutMany upserts records. Records whose raw content cannot be serialised
// are reported in a *domain.PutError; the rest are stored.
func (s *ContentStore) PutMany(_ context.Context, records []domain.ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var failed []string
	var firstErr error
	for _, rec := range records {
		if rec.ID == "" {
			failed = append(failed, rec.ID)
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: empty content ID", domain.ErrInvalidInput)
			}
			continue
		}
		raw, err := domain.EncodeRaw(rec.Raw)
		if err != nil {
			failed = append(failed, rec.ID)
			if firstErr == nil {
				firstErr = fmt.Errorf("record %q: %w", rec.ID, err)
			}
			continue
		}
		s.records[rec.ID] = storedRecord{raw: raw, meta: rec.Metadata}
	}

	if len(failed) > 0 {
		return &domain.PutError{FailedIDs: failed, Err: firstErr}
	}
	return nil
}

// GetMany fetches records by ID; unknown IDs are absent from the result.
func (s *ContentStore) GetMany(_ context.Context, ids []string) (map[string]domain.ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.ContentRecord, len(ids))
	for _, id := range ids {
		stored, ok := s.records[id]
		if !ok {
			continue
		}
		raw, err := domain.DecodeRaw(stored.raw)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", id, err)
		}
		out[id] = domain.ContentRecord{ID: id, Raw: raw, Metadata: stored.meta}
	}
	return out, nil
}

// DeleteMany removes records by ID.
func (s *ContentStore) DeleteMany(_ context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteByDocument removes all records of a document in a namespace.
func (s *ContentStore) DeleteByDocument(_ context.Context, namespace, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, rec := range s.records {
		if rec.meta.TenantIndexName == namespace && rec.meta.SourceDocumentID == documentID {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// ListIDs yields the IDs of a namespace in ascending order.
// The ID set is snapshotted when iteration starts.
func (s *ContentStore) ListIDs(_ context.Context, namespace string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.mu.RLock()
		ids := make([]string, 0, len(s.records))
		for id, rec := range s.records {
			if namespace == "" || rec.meta.TenantIndexName == namespace {
				ids = append(ids, id)
			}
		}
		s.mu.RUnlock()

		sort.Strings(ids)
		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

// Len returns the number of stored records.
func (s *ContentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *ContentStore) Close() error {
	return nil
}
