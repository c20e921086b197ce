// Package image provides a Normaliser for standalone image files. The image
// is passed through as a single image element; resizing happens at query time.
package image

import (
	"context"
	"encoding/base64"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/services"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles raster images.
type Normaliser struct{}

// New creates a new image normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise returns the image bytes base64 encoded. Content that does not
// sniff as a supported image is rejected.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil || len(raw.Content) == 0 {
		return nil, domain.ErrInvalidInput
	}
	encoded := base64.StdEncoding.EncodeToString(raw.Content)
	if _, ok := services.ImageFormat(encoded); !ok {
		return nil, domain.ErrUnsupportedType
	}

	return &driven.NormaliseResult{
		Title:  normalisers.Title(raw),
		Images: []string{encoded},
	}, nil
}
