package mcp

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer  *domain.Answer
	records []domain.RetrievedRecord
	err     error

	gotNamespace    string
	gotConversation []domain.ConversationTurn
	gotQuery        string
	gotK            int
}

func (m *mockChatService) Ask(
	_ context.Context,
	namespace string,
	conversation []domain.ConversationTurn,
	k int,
) (*domain.Answer, error) {
	m.gotNamespace = namespace
	m.gotConversation = conversation
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	if m.answer == nil {
		return &domain.Answer{}, nil
	}
	return m.answer, nil
}

func (m *mockChatService) Retrieve(
	_ context.Context,
	namespace, query string,
	k int,
) ([]domain.RetrievedRecord, error) {
	m.gotNamespace = namespace
	m.gotQuery = query
	m.gotK = k
	return m.records, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	statuses []domain.DocumentStatus
	status   *domain.DocumentStatus
	err      error
}

func (m *mockDocumentService) Status(_ context.Context, _ string) (*domain.DocumentStatus, error) {
	return m.status, m.err
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.DocumentStatus, error) {
	return m.statuses, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _, _ string) (*driving.DeleteResult, error) {
	return &driving.DeleteResult{}, m.err
}

// mockTenants resolves channel IDs from a fixed map.
type mockTenants struct {
	namespaces map[string]string
}

func (m *mockTenants) Resolve(_ context.Context, identity domain.TenantIdentity) (string, error) {
	ns, ok := m.namespaces[identity.ChannelID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return ns, nil
}
