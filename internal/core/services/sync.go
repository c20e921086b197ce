package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncService = (*SyncService)(nil)

// SyncService drains a connector through extraction into ingestion,
// one document at a time.
type SyncService struct {
	extractor driven.Extractor
	ingest    driving.IngestionService
	documents driving.DocumentService
}

// NewSyncService creates a sync service. documents is used by forced syncs
// to remove a document before re-ingesting it.
func NewSyncService(
	extractor driven.Extractor,
	ingest driving.IngestionService,
	documents driving.DocumentService,
) *SyncService {
	return &SyncService{extractor: extractor, ingest: ingest, documents: documents}
}

// Sync ingests every document the connector yields into namespace.
func (s *SyncService) Sync(
	ctx context.Context,
	connector driven.Connector,
	namespace string,
	opts driving.SyncOptions,
) (*driving.SyncReport, error) {
	if namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", domain.ErrInvalidInput)
	}

	// 1. Validate connector (check auth, configuration, connectivity)
	if err := connector.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate %s connector: %w", connector.Type(), err)
	}

	logger.Info("Starting %s sync into %s", connector.Type(), namespace)
	report := &driving.SyncReport{}
	docsCh, errsCh := connector.FullSync(ctx)

	// 2. Process documents until both channels close
	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return report, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return report, fmt.Errorf("connector error: %w", err)
			}

		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			s.processOne(ctx, raw, namespace, opts, report)
		}
	}

	logger.Info("Sync complete: %d ingested, %d skipped, %d unsupported, %d failed",
		report.Ingested, report.Skipped, report.Unsupported, report.Failed)
	return report, nil
}

func (s *SyncService) processOne(
	ctx context.Context,
	raw domain.RawDocument,
	namespace string,
	opts driving.SyncOptions,
	report *driving.SyncReport,
) {
	logger.Debug("Processing: %s (%s)", raw.URI, raw.MIMEType)

	doc, err := s.extractor.Extract(ctx, raw, namespace)
	if errors.Is(err, domain.ErrUnsupportedType) {
		report.Unsupported++
		logger.Debug("Skipping %s: %v", raw.URI, err)
		return
	}
	if err != nil {
		report.Failed++
		report.Errors = append(report.Errors, fmt.Errorf("%s: %w", raw.ID, err))
		logger.Warn("Failed to extract %s: %v", raw.URI, err)
		return
	}

	if opts.Force && s.documents != nil {
		if _, err := s.documents.Delete(ctx, namespace, doc.SourceDocumentID); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", raw.ID, err))
			return
		}
	}

	_, err = s.ingest.Ingest(ctx, *doc)
	switch {
	case errors.Is(err, domain.ErrAlreadyIngested):
		report.Skipped++
	case err != nil:
		report.Failed++
		report.Errors = append(report.Errors, fmt.Errorf("%s: %w", raw.ID, err))
		logger.Warn("Failed to ingest %s: %v", raw.URI, err)
	default:
		report.Ingested++
	}
}
