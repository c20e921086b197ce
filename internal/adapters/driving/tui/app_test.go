package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	AskFunc func(ctx context.Context, ns string, conv []domain.ConversationTurn, k int) (*domain.Answer, error)
}

func (m *MockChatService) Ask(
	ctx context.Context, ns string, conv []domain.ConversationTurn, k int,
) (*domain.Answer, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, ns, conv, k)
	}
	return &domain.Answer{Text: "ok"}, nil
}

func (m *MockChatService) Retrieve(_ context.Context, _, _ string, _ int) ([]domain.RetrievedRecord, error) {
	return nil, nil
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	Docs []domain.DocumentStatus
}

func (m *MockDocumentService) Status(_ context.Context, _ string) (*domain.DocumentStatus, error) {
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) List(_ context.Context, _ string) ([]domain.DocumentStatus, error) {
	return m.Docs, nil
}

func (m *MockDocumentService) Delete(_ context.Context, _, _ string) (*driving.DeleteResult, error) {
	return &driving.DeleteResult{}, nil
}

func newTestPorts() *Ports {
	return &Ports{
		Chat:      &MockChatService{},
		Documents: &MockDocumentService{},
		Namespace: "acme",
		K:         4,
	}
}

func TestPorts_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, newTestPorts().Validate())
	})

	t.Run("missing chat", func(t *testing.T) {
		p := newTestPorts()
		p.Chat = nil
		assert.ErrorIs(t, p.Validate(), ErrMissingChatService)
	})

	t.Run("missing namespace", func(t *testing.T) {
		p := newTestPorts()
		p.Namespace = ""
		assert.ErrorIs(t, p.Validate(), ErrMissingNamespace)
	})

	t.Run("documents optional", func(t *testing.T) {
		p := newTestPorts()
		p.Documents = nil
		assert.NoError(t, p.Validate())
	})
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Namespace: "acme"})

	assert.ErrorIs(t, err, ErrMissingChatService)
	assert.Nil(t, app)
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "docchat")
}

func TestApp_ChatRoundTrip(t *testing.T) {
	var gotNamespace string
	var gotK int
	ports := newTestPorts()
	ports.Chat = &MockChatService{
		AskFunc: func(_ context.Context, ns string, _ []domain.ConversationTurn, k int) (*domain.Answer, error) {
			gotNamespace, gotK = ns, k
			return &domain.Answer{Text: "The policy allows 30 days.", Sources: []string{"policy.docx"}}, nil
		},
	}
	app, _ := NewApp(ports)
	app.SetDimensions(100, 30)

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("refund window?")})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, "acme", gotNamespace)
	assert.Equal(t, 4, gotK)
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "The policy allows 30 days.")
}

func TestApp_ChatError(t *testing.T) {
	ports := newTestPorts()
	ports.Chat = &MockChatService{
		AskFunc: func(context.Context, string, []domain.ConversationTurn, int) (*domain.Answer, error) {
			return nil, domain.ErrEmbeddingUnavailable
		},
	}
	app, _ := NewApp(ports)
	app.SetDimensions(100, 30)

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.ErrorIs(t, app.Err(), domain.ErrEmbeddingUnavailable)
}

func TestApp_Navigation(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	app.SetDimensions(80, 24)

	// Esc from chat goes to the menu.
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Equal(t, messages.ViewMenu, app.CurrentView())

	// Documents loads on entry.
	_, cmd = app.Update(messages.ViewChanged{View: messages.ViewDocuments})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Contains(t, app.View(), "Documents - acme (0)")

	// Help returns to the menu on esc.
	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "Help")
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	model, _ := app.Update(messages.ErrorOccurred{Err: errors.New("something went wrong")})

	assert.Equal(t, app, model)
	assert.Error(t, app.Err())
}

func TestApp_Quit(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
}
