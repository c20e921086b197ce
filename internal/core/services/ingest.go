package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService runs the per-document write pipeline:
// status check, summarisation, then one IndexBatch per non-empty modality.
type IngestionService struct {
	statuses   driven.StatusStore
	summariser *Summariser
	indexer    *Indexer
	documents  *DocumentService
	workers    int
	now        func() time.Time

	mu     sync.Mutex
	active map[string]bool
}

// NewIngestionService creates an ingestion service. documents is used to
// purge the partial writes of an earlier failed attempt before a retry.
func NewIngestionService(
	statuses driven.StatusStore,
	summariser *Summariser,
	indexer *Indexer,
	documents *DocumentService,
) *IngestionService {
	return &IngestionService{
		statuses:   statuses,
		summariser: summariser,
		indexer:    indexer,
		documents:  documents,
		workers:    1,
		now:        time.Now,
		active:     make(map[string]bool),
	}
}

// SetWorkers caps how many documents IngestMany processes in parallel.
func (s *IngestionService) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// Ingest indexes one extracted document.
func (s *IngestionService) Ingest(ctx context.Context, doc domain.ExtractedDocument) (*domain.DocumentStatus, error) {
	logger.Section("Ingest " + doc.SourceDocumentID)
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if !s.acquire(doc.SourceDocumentID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, doc.SourceDocumentID)
	}
	defer s.release(doc.SourceDocumentID)

	// 1. CHECK STATUS
	previous, err := s.statuses.Get(ctx, doc.SourceDocumentID)
	switch {
	case err == nil && previous.Status == domain.StatusSuccess:
		logger.Info("Skipping %s: already ingested", doc.SourceDocumentID)
		return previous, domain.ErrAlreadyIngested
	case err == nil:
		// A failed or interrupted attempt may have left partial writes.
		logger.Info("Purging partial writes of %s (was %s)", doc.SourceDocumentID, previous.Status)
		if _, err := s.documents.purge(ctx, previous.TenantIndexName, doc.SourceDocumentID); err != nil {
			return nil, fmt.Errorf("purge previous attempt: %w", err)
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get status: %w", err)
	}

	// 2. MARK IN PROGRESS
	status := domain.DocumentStatus{
		DocumentID:      doc.SourceDocumentID,
		TenantIndexName: doc.TenantIndexName,
		Name:            doc.Name,
		URL:             doc.URL,
		Status:          domain.StatusInProgress,
		UpdatedAt:       s.now(),
	}
	if err := s.statuses.Save(ctx, status); err != nil {
		return nil, fmt.Errorf("save status: %w", err)
	}

	// 3. SUMMARISE AND INDEX
	count, runErr := s.run(ctx, doc)

	// 4. RECORD OUTCOME
	// The outcome is recorded even if ctx was cancelled mid-run.
	status.ContentCount = count
	status.UpdatedAt = s.now()
	if runErr != nil {
		status.Status = domain.StatusFailure
		status.Error = runErr.Error()
		logger.Warn("Ingest %s failed after %d item(s): %v", doc.SourceDocumentID, count, runErr)
	} else {
		status.Status = domain.StatusSuccess
		logger.Info("Ingested %s: %d item(s)", doc.SourceDocumentID, count)
	}
	if err := s.statuses.Save(context.WithoutCancel(ctx), status); err != nil {
		return &status, errors.Join(runErr, fmt.Errorf("save status: %w", err))
	}
	return &status, runErr
}

func (s *IngestionService) run(ctx context.Context, doc domain.ExtractedDocument) (int, error) {
	summaries, err := s.summariser.Summarise(ctx, doc)
	if err != nil {
		return 0, err
	}

	groups := []struct {
		modality  domain.Modality
		summaries []string
		raws      []any
	}{
		{domain.ModalityText, summaries.Texts, toAny(doc.Texts)},
		{domain.ModalityTable, summaries.Tables, toAny(doc.Tables)},
		{domain.ModalityImage, summaries.Images, toAny(doc.Images)},
	}

	count := 0
	for _, g := range groups {
		if len(g.summaries) == 0 || len(g.raws) == 0 {
			continue
		}
		ids, err := s.indexer.IndexBatch(ctx, g.summaries, g.raws, domain.Metadata{
			SourceDocumentID: doc.SourceDocumentID,
			TenantIndexName:  doc.TenantIndexName,
			Modality:         g.modality,
		})
		count += len(ids)
		if err != nil {
			return count, fmt.Errorf("index %s: %w", g.modality, err)
		}
	}
	return count, nil
}

// IngestMany ingests documents independently. Documents already ingested
// are reported with their existing status and are not errors.
func (s *IngestionService) IngestMany(
	ctx context.Context, docs []domain.ExtractedDocument,
) ([]domain.DocumentStatus, error) {
	statuses := make([]domain.DocumentStatus, len(docs))
	errs := make([]error, len(docs))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, doc := range docs {
		g.Go(func() error {
			status, err := s.Ingest(ctx, doc)
			if status != nil {
				statuses[i] = *status
			} else {
				statuses[i] = domain.DocumentStatus{
					DocumentID:      doc.SourceDocumentID,
					TenantIndexName: doc.TenantIndexName,
					Status:          domain.StatusFailure,
				}
				if err != nil {
					statuses[i].Error = err.Error()
				}
			}
			if err != nil && !errors.Is(err, domain.ErrAlreadyIngested) {
				errs[i] = fmt.Errorf("%s: %w", doc.SourceDocumentID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return statuses, errors.Join(errs...)
}

func (s *IngestionService) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[id] {
		return false
	}
	s.active[id] = true
	return true
}

func (s *IngestionService) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
