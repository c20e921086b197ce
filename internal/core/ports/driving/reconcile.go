package driving

import "context"

// Reconciler repairs drift between the content store and the vector index.
type Reconciler interface {
	// Reconcile compares both stores for a namespace. Unless dryRun is set,
	// it deletes vectors with no content and content with no vector.
	Reconcile(ctx context.Context, namespace string, dryRun bool) (*ReconcileReport, error)
}

// ReconcileReport lists the drift found by a sweep.
type ReconcileReport struct {
	Namespace string

	// DanglingVectors are vector entries whose content is missing.
	DanglingVectors []string

	// OrphanedRecords are content records no vector points to.
	OrphanedRecords []string

	// Repaired is true when the drift was deleted.
	Repaired bool
}

// Clean returns true if no drift was found.
func (r *ReconcileReport) Clean() bool {
	return len(r.DanglingVectors) == 0 && len(r.OrphanedRecords) == 0
}
