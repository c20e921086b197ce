package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure Reconciler implements the interface.
var _ driving.Reconciler = (*Reconciler)(nil)

// Reconciler is the offline sweep that removes drift between the two
// stores. It is never run inline with ingestion or retrieval.
type Reconciler struct {
	store driven.ContentStore
	index driven.VectorIndex
}

// NewReconciler creates a reconciler.
func NewReconciler(store driven.ContentStore, index driven.VectorIndex) *Reconciler {
	return &Reconciler{store: store, index: index}
}

// Reconcile compares the IDs of both stores in a namespace.
//
// Vectors are deleted before content so a concurrent reader never sees a
// vector whose content this sweep removed. Content written by an ingestion
// that is still running can look orphaned; run the sweep when the
// namespace is idle.
func (r *Reconciler) Reconcile(ctx context.Context, namespace string, dryRun bool) (*driving.ReconcileReport, error) {
	logger.Section("Reconcile " + namespace)
	if namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", domain.ErrInvalidInput)
	}

	contentIDs := make(map[string]bool)
	for id, err := range r.store.ListIDs(ctx, namespace) {
		if err != nil {
			return nil, fmt.Errorf("list content IDs: %w", err)
		}
		contentIDs[id] = true
	}

	report := &driving.ReconcileReport{Namespace: namespace}
	vectorIDs := make(map[string]bool)
	for id, err := range r.index.ListIDs(ctx, namespace) {
		if err != nil {
			return nil, fmt.Errorf("list vector IDs: %w", err)
		}
		vectorIDs[id] = true
		if !contentIDs[id] {
			report.DanglingVectors = append(report.DanglingVectors, id)
		}
	}

	// ListIDs yields in ascending order, so the report is sorted.
	for id, err := range r.store.ListIDs(ctx, namespace) {
		if err != nil {
			return nil, fmt.Errorf("list content IDs: %w", err)
		}
		if !vectorIDs[id] {
			report.OrphanedRecords = append(report.OrphanedRecords, id)
		}
	}

	logger.Info("Found %d dangling vector(s), %d orphaned record(s)",
		len(report.DanglingVectors), len(report.OrphanedRecords))
	if dryRun || report.Clean() {
		return report, nil
	}

	if len(report.DanglingVectors) > 0 {
		if err := r.index.Delete(ctx, namespace, report.DanglingVectors); err != nil {
			return report, fmt.Errorf("delete dangling vectors: %w", err)
		}
	}
	if len(report.OrphanedRecords) > 0 {
		if _, err := r.store.DeleteMany(ctx, report.OrphanedRecords); err != nil {
			return report, fmt.Errorf("delete orphaned records: %w", err)
		}
	}
	report.Repaired = true
	return report, nil
}
