package memory

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/bruteforce"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory brute-force implementation of driven.VectorIndex.
type VectorIndex struct {
	mu         sync.RWMutex
	namespaces map[string]*namespace
}

type namespace struct {
	dimensions int
	entries    map[string]domain.VectorEntry
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{namespaces: make(map[string]*namespace)}
}

// EnsureNamespace creates a namespace with a fixed dimensionality.
func (v *VectorIndex) EnsureNamespace(_ context.Context, name string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrConfiguration)
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if ns, ok := v.namespaces[name]; ok {
		if ns.dimensions != dimensions {
			return fmt.Errorf("%w: namespace %q has %d, want %d",
				domain.ErrDimensionMismatch, name, ns.dimensions, dimensions)
		}
		return nil
	}
	v.namespaces[name] = &namespace{dimensions: dimensions, entries: make(map[string]domain.VectorEntry)}
	return nil
}

// Upsert writes entries; all are validated before any is written.
func (v *VectorIndex) Upsert(_ context.Context, name string, entries []domain.VectorEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	ns, ok := v.namespaces[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrNamespaceNotFound, name)
	}
	for _, e := range entries {
		if len(e.Vector) != ns.dimensions {
			return fmt.Errorf("%w: entry %q has %d, namespace %q has %d",
				domain.ErrDimensionMismatch, e.ContentID, len(e.Vector), name, ns.dimensions)
		}
	}
	for _, e := range entries {
		ns.entries[e.ContentID] = domain.VectorEntry{
			ContentID: e.ContentID,
			Vector:    slices.Clone(e.Vector),
			Metadata:  maps.Clone(e.Metadata),
		}
	}
	return nil
}

// Search returns the top k entries by cosine similarity.
func (v *VectorIndex) Search(_ context.Context, name string, query []float32, k int) ([]domain.VectorMatch, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ns, ok := v.namespaces[name]
	if !ok {
		return []domain.VectorMatch{}, nil
	}
	if len(query) != ns.dimensions {
		return nil, fmt.Errorf("%w: query has %d, namespace %q has %d",
			domain.ErrDimensionMismatch, len(query), name, ns.dimensions)
	}

	candidates := make([]bruteforce.Candidate, 0, len(ns.entries))
	for _, e := range ns.entries {
		candidates = append(candidates, bruteforce.Candidate{
			ContentID: e.ContentID,
			Vector:    e.Vector,
			Metadata:  maps.Clone(e.Metadata),
		})
	}
	return bruteforce.Rank(query, candidates, k)
}

// Delete removes entries by content ID.
func (v *VectorIndex) Delete(_ context.Context, name string, contentIDs []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ns, ok := v.namespaces[name]; ok {
		for _, id := range contentIDs {
			delete(ns.entries, id)
		}
	}
	return nil
}

// DeleteByDocument removes the entries of one source document.
func (v *VectorIndex) DeleteByDocument(_ context.Context, name, documentID string) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ns, ok := v.namespaces[name]
	if !ok {
		return nil, nil
	}
	var deleted []string
	for id, e := range ns.entries {
		if e.Metadata[domain.MetaSourceDocumentID] == documentID {
			delete(ns.entries, id)
			deleted = append(deleted, id)
		}
	}
	sort.Strings(deleted)
	return deleted, nil
}

// ListIDs yields the content IDs of a namespace in ascending order.
func (v *VectorIndex) ListIDs(_ context.Context, name string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		v.mu.RLock()
		var ids []string
		if ns, ok := v.namespaces[name]; ok {
			ids = slices.Sorted(maps.Keys(ns.entries))
		}
		v.mu.RUnlock()

		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

// Len returns the number of entries in a namespace.
func (v *VectorIndex) Len(name string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if ns, ok := v.namespaces[name]; ok {
		return len(ns.entries)
	}
	return 0
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}
