package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Retriever resolves a question to raw content records in one namespace.
type Retriever interface {
	// Retrieve returns at most k records in similarity rank order.
	// A question that matches nothing yields an empty slice, not an error.
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedRecord, error)
}
