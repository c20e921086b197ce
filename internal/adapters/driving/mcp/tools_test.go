package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer and sources", func(t *testing.T) {
		chat := &mockChatService{
			answer: &domain.Answer{Text: "Revenue grew 12%.", Sources: []string{"doc-1", "doc-2"}},
		}
		server, err := NewServer(&Ports{Chat: chat, DefaultK: 5})
		require.NoError(t, err)

		input := AskInput{
			Namespace: "acme",
			Question:  "How did revenue change?",
			History: []domain.ConversationTurn{
				{Role: domain.RoleUser, Content: "hi"},
				{Role: domain.RoleAssistant, Content: "hello"},
			},
		}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "acme", output.Namespace)
		assert.Equal(t, "Revenue grew 12%.", output.Answer)
		assert.Equal(t, []string{"doc-1", "doc-2"}, output.Sources)

		assert.Equal(t, "acme", chat.gotNamespace)
		assert.Equal(t, 5, chat.gotK)
		require.Len(t, chat.gotConversation, 3)
		assert.Equal(t, domain.RoleUser, chat.gotConversation[2].Role)
		assert.Equal(t, "How did revenue change?", chat.gotConversation[2].Content)
	})

	t.Run("nil sources become empty", func(t *testing.T) {
		chat := &mockChatService{answer: &domain.Answer{Text: "I don't know."}}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Namespace: "acme", Question: "q"})
		require.NoError(t, err)
		assert.NotNil(t, output.Sources)
		assert.Empty(t, output.Sources)
		assert.Equal(t, defaultK, chat.gotK)
	})

	t.Run("blank question is invalid", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Namespace: "acme", Question: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("resolves namespace from channel", func(t *testing.T) {
		chat := &mockChatService{}
		tenants := &mockTenants{namespaces: map[string]string{"C123": "ns-finance"}}
		server, err := NewServer(&Ports{Chat: chat, Tenants: tenants})
		require.NoError(t, err)

		input := AskInput{ChannelID: "C123", ChannelName: "ask_finance", Question: "q"}
		_, output, err := server.handleAsk(ctx, nil, input)
		require.NoError(t, err)
		assert.Equal(t, "ns-finance", output.Namespace)
		assert.Equal(t, "ns-finance", chat.gotNamespace)
	})

	t.Run("unknown channel returns not found", func(t *testing.T) {
		tenants := &mockTenants{namespaces: map[string]string{}}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Tenants: tenants})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{ChannelID: "C999", Question: "q"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("channel without resolver is a configuration error", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{ChannelID: "C123", Question: "q"})
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("missing scope is invalid", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on chat failure", func(t *testing.T) {
		chat := &mockChatService{err: domain.ErrLLMUnavailable}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Namespace: "acme", Question: "q"})
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns records in rank order", func(t *testing.T) {
		chat := &mockChatService{
			records: []domain.RetrievedRecord{
				{
					Record: domain.ContentRecord{
						ID:  "c-1",
						Raw: "quarterly revenue",
						Metadata: domain.Metadata{
							SourceDocumentID: "doc-1",
							Modality:         domain.ModalityText,
						},
					},
					Score: 0.91,
					Rank:  0,
				},
				{
					Record: domain.ContentRecord{
						ID:  "c-2",
						Raw: domain.Table{Columns: []string{"q", "rev"}, Rows: [][]string{{"Q1", "10"}}},
						Metadata: domain.Metadata{
							SourceDocumentID: "doc-2",
							Modality:         domain.ModalityTable,
						},
					},
					Score: 0.8,
					Rank:  1,
				},
			},
		}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Namespace: "acme", Query: "revenue", K: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "revenue", chat.gotQuery)
		assert.Equal(t, 2, chat.gotK)

		assert.Equal(t, "c-1", output.Records[0].ContentID)
		assert.Equal(t, "text", output.Records[0].Modality)
		assert.Equal(t, "doc-1", output.Records[0].SourceDocumentID)
		assert.Equal(t, "quarterly revenue", output.Records[0].Content)

		assert.Equal(t, "table", output.Records[1].Modality)
		assert.Equal(t, 1, output.Records[1].Rank)
		assert.Equal(t, "q\trev\nQ1\t10", output.Records[1].Content)
	})

	t.Run("no matches returns empty output", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Namespace: "acme", Query: "x"})
		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Empty(t, output.Records)
	})

	t.Run("returns error on retrieve failure", func(t *testing.T) {
		chat := &mockChatService{err: errors.New("index offline")}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Namespace: "acme", Query: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index offline")
	})
}
