package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages ingested documents.
type DocumentService struct {
	store    driven.ContentStore
	index    driven.VectorIndex
	statuses driven.StatusStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	store driven.ContentStore, index driven.VectorIndex, statuses driven.StatusStore,
) *DocumentService {
	return &DocumentService{store: store, index: index, statuses: statuses}
}

// Status returns the ingestion status of a document.
func (s *DocumentService) Status(ctx context.Context, documentID string) (*domain.DocumentStatus, error) {
	status, err := s.statuses.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return status, nil
}

// List returns the statuses of a namespace.
func (s *DocumentService) List(ctx context.Context, namespace string) ([]domain.DocumentStatus, error) {
	statuses, err := s.statuses.List(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

// Delete removes a document from a namespace: vectors first, then
// content records, then the status record. Deleting vectors first keeps
// every visible index entry resolvable while the cascade runs.
func (s *DocumentService) Delete(ctx context.Context, namespace, documentID string) (*driving.DeleteResult, error) {
	logger.Section("Delete " + documentID)

	result, err := s.purge(ctx, namespace, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.statuses.Delete(ctx, documentID); err != nil {
		return result, fmt.Errorf("delete status: %w", err)
	}

	logger.Info("Deleted %s from %s: %d vector(s), %d record(s)",
		documentID, namespace, result.VectorsDeleted, result.RecordsDeleted)
	return result, nil
}

// purge removes a document's vectors and content records, keeping its status.
func (s *DocumentService) purge(ctx context.Context, namespace, documentID string) (*driving.DeleteResult, error) {
	if namespace == "" || documentID == "" {
		return nil, fmt.Errorf("%w: namespace and document ID are required", domain.ErrInvalidInput)
	}

	// 1. VECTOR INDEX
	vectorIDs, err := s.index.DeleteByDocument(ctx, namespace, documentID)
	if err != nil {
		return nil, fmt.Errorf("delete vectors: %w", err)
	}

	// 2. CONTENT STORE
	records, err := s.store.DeleteByDocument(ctx, namespace, documentID)
	if err != nil {
		return &driving.DeleteResult{VectorsDeleted: len(vectorIDs)}, fmt.Errorf("delete content: %w", err)
	}

	return &driving.DeleteResult{VectorsDeleted: len(vectorIDs), RecordsDeleted: records}, nil
}
