package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Normaliser turns the bytes of one document format into text, tables and images.
// Each normaliser handles specific MIME types (e.g., DOCX, CSV).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise extracts the elements of a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Text is chunked later by a Chunker; tables and images pass through unchanged.
type NormaliseResult struct {
	// Title is the document title, when the format carries one.
	Title string

	// Text is the full readable text of the document.
	Text string

	// Chunks are pre-split text elements. When set, Text is ignored.
	Chunks []string

	// Tables are structured tables found in the document.
	Tables []domain.Table

	// Images are base64 encoded images found in the document.
	Images []string
}
