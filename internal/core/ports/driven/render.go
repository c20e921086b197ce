package driven

import "github.com/custodia-labs/docchat/internal/core/domain"

// ImageNormaliser bounds the pixel footprint of an image before transmission.
type ImageNormaliser interface {
	// Normalise decodes, resizes and re-encodes an image.
	Normalise(img domain.ImageContent) (domain.InlineImage, error)
}

// TableRenderer turns a table into a human-readable text block.
// Output must be deterministic for equal input.
type TableRenderer interface {
	Render(table domain.Table) string
}
