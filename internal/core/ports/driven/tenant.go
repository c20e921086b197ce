package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// TenantResolver maps a caller identity to a tenant namespace.
// The namespace must be derived from a stable channel identifier,
// never a human-readable name.
type TenantResolver interface {
	// Resolve returns the namespace, or domain.ErrNotFound if the identity is unknown.
	Resolve(ctx context.Context, identity domain.TenantIdentity) (string, error)
}
