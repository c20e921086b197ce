package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure StatusStore implements the interface.
var _ driven.StatusStore = (*StatusStore)(nil)

// StatusStore is an in-memory implementation of driven.StatusStore.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]domain.DocumentStatus
}

// NewStatusStore creates a new in-memory status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{statuses: make(map[string]domain.DocumentStatus)}
}

// Get retrieves a status by document ID.
func (s *StatusStore) Get(_ context.Context, documentID string) (*domain.DocumentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &status, nil
}

// Save stores or replaces a status.
func (s *StatusStore) Save(_ context.Context, status domain.DocumentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.DocumentID] = status
	return nil
}

// List returns the statuses of a namespace ordered by document ID.
func (s *StatusStore) List(_ context.Context, namespace string) ([]domain.DocumentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.DocumentStatus{}
	for _, status := range s.statuses {
		if namespace == "" || status.TenantIndexName == namespace {
			out = append(out, status)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

// Delete removes a status.
func (s *StatusStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, documentID)
	return nil
}
