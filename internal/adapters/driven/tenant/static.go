// Package tenant provides the single-deployment tenant resolver.
package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Static implements the interface.
var _ driven.TenantResolver = (*Static)(nil)

// Static uses the channel ID as the namespace. When no channel ID is given
// it falls back to a fixed default namespace, if one is set.
type Static struct {
	defaultNamespace string
}

// NewStatic creates a static resolver. defaultNamespace may be empty.
func NewStatic(defaultNamespace string) *Static {
	return &Static{defaultNamespace: defaultNamespace}
}

// Resolve returns the channel ID or the default namespace.
func (s *Static) Resolve(_ context.Context, identity domain.TenantIdentity) (string, error) {
	if id := strings.TrimSpace(identity.ChannelID); id != "" {
		return id, nil
	}
	if s.defaultNamespace != "" {
		return s.defaultNamespace, nil
	}
	return "", fmt.Errorf("%w: channel ID is required", domain.ErrInvalidInput)
}
