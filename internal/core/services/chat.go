package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers a conversation from one namespace.
// Only the last user turn is searched; the rest of the conversation
// reaches the model as history.
type ChatService struct {
	retriever *Retriever
	assembler *Assembler
	llm       driven.LLMService
	opts      driven.ChatOptions
}

// NewChatService creates a chat service. llm may be nil, in which case
// Ask returns domain.ErrLLMUnavailable and only Retrieve works.
func NewChatService(retriever *Retriever, assembler *Assembler, llm driven.LLMService) *ChatService {
	return &ChatService{
		retriever: retriever,
		assembler: assembler,
		llm:       llm,
		opts:      driven.ChatOptions{MaxTokens: 1024},
	}
}

// SetChatOptions overrides the generation options.
func (s *ChatService) SetChatOptions(opts driven.ChatOptions) {
	s.opts = opts
}

// Ask answers the question in the conversation.
func (s *ChatService) Ask(
	ctx context.Context, namespace string, conversation []domain.ConversationTurn, k int,
) (*domain.Answer, error) {
	question, history, ok := domain.SplitConversation(conversation)
	if !ok {
		return nil, fmt.Errorf("%w: conversation has no question", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	records, err := s.Retrieve(ctx, namespace, question, k)
	if err != nil {
		return nil, err
	}

	payload := s.assembler.Assemble(records, question, history)

	logger.Section("Generate")
	logger.Debug("Model: %s, images: %d, text: %d bytes, history: %d turn(s)",
		s.llm.ModelName(), len(payload.Images), len(payload.Text), len(payload.History))
	text, err := s.llm.Answer(ctx, payload, s.opts)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:      text,
		Sources:   sources(records),
		Retrieved: len(records),
	}, nil
}

// Retrieve returns the records a question would be answered from.
func (s *ChatService) Retrieve(
	ctx context.Context, namespace, query string, k int,
) ([]domain.RetrievedRecord, error) {
	records, err := s.retriever.Scoped(namespace).Retrieve(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return records, nil
}

// sources returns distinct source document IDs in rank order.
func sources(records []domain.RetrievedRecord) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		id := r.Record.Metadata.SourceDocumentID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
