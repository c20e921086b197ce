package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Connector fetches documents from a remote source.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the connector is configured and authenticated,
	// typically with a lightweight API call.
	Validate(ctx context.Context) error

	// FullSync fetches every supported document from the source.
	// Both channels are closed when the sync finishes.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Close releases resources.
	Close() error
}

// Extractor turns fetched bytes into the three element lists ingestion consumes.
type Extractor interface {
	// Extract returns domain.ErrUnsupportedType for MIME types it cannot read.
	Extract(ctx context.Context, raw domain.RawDocument, namespace string) (*domain.ExtractedDocument, error)
}
