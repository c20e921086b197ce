package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// SyncService pulls documents from a connector, extracts and ingests them.
type SyncService interface {
	// Sync ingests every document the connector yields into namespace.
	// Per-document failures are counted, not returned; the error reports
	// connector failures and cancellation.
	Sync(ctx context.Context, connector driven.Connector, namespace string, opts SyncOptions) (*SyncReport, error)
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	// Force re-ingests documents already marked SUCCESS, replacing their content.
	Force bool
}

// SyncReport summarises a sync run.
type SyncReport struct {
	Ingested    int
	Skipped     int // Already ingested.
	Unsupported int // No normaliser for the MIME type.
	Failed      int
	Errors      []error
}
