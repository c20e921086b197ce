package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ChatService answers questions from indexed content.
type ChatService interface {
	// Ask answers the last user turn of a conversation using the k most
	// relevant records of a namespace. Earlier turns are passed to the model
	// as history but never searched.
	Ask(ctx context.Context, namespace string, conversation []domain.ConversationTurn, k int) (*domain.Answer, error)

	// Retrieve runs only the retrieval half of Ask.
	Retrieve(ctx context.Context, namespace, query string, k int) ([]domain.RetrievedRecord, error)
}
