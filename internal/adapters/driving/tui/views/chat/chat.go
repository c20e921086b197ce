// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// ErrNoChatService is returned when a question is sent without a chat service.
var ErrNoChatService = errors.New("chat service not available")

// reservedLines is the height taken by the header, input and status bar.
const reservedLines = 8

// entry is one transcript line group. Sources is set on answers only.
type entry struct {
	turn    domain.ConversationTurn
	sources []string
}

// View is the chat view: a scrolling transcript above a question input.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.PromptInput
	transcript viewport.Model
	statusbar  *status.Bar

	chatService driving.ChatService
	ctx         context.Context
	namespace   string
	k           int

	entries []entry
	pending bool
	err     error

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view bound to one namespace.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	chatService driving.ChatService,
	namespace string,
	k int,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetNamespace(namespace)

	return &View{
		styles:      s,
		keymap:      km,
		input:       input.NewPromptInput(s),
		transcript:  viewport.New(80, 24-reservedLines),
		statusbar:   bar,
		chatService: chatService,
		ctx:         context.Background(),
		namespace:   namespace,
		k:           k,
		width:       80,
		height:      24,
	}
}

// WithContext sets the context used for chat requests.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.pending = false
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(keyStr, v.keymap.Clear):
		v.Reset()
		v.statusbar.SetMessage("New conversation")
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ScrollUp), keymap.Matches(keyStr, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case keymap.Matches(keyStr, v.keymap.Send):
		return v, v.submit()
	}

	// Typing is ignored while an answer is pending.
	if v.pending {
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit appends the typed question and asks the chat service.
func (v *View) submit() tea.Cmd {
	if v.pending {
		return nil
	}
	question := v.input.Question()
	if question == "" {
		return nil
	}

	v.entries = append(v.entries, entry{turn: domain.ConversationTurn{Role: domain.RoleUser, Content: question}})
	v.input.Reset()
	v.pending = true
	v.err = nil
	v.statusbar.SetState(status.StateThinking)
	v.refreshTranscript()

	return v.ask(v.Conversation())
}

// ask runs the request off the update loop. conversation must not be
// shared with the view.
func (v *View) ask(conversation []domain.ConversationTurn) tea.Cmd {
	chatService, ctx, ns, k := v.chatService, v.ctx, v.namespace, v.k
	return func() tea.Msg {
		if chatService == nil {
			return messages.AnswerReceived{Err: ErrNoChatService}
		}
		answer, err := chatService.Ask(ctx, ns, conversation, k)
		return messages.AnswerReceived{Answer: answer, Err: err}
	}
}

// handleAnswer appends the answer, or on failure drops the unanswered
// question and puts it back in the input for a retry.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = false

	if msg.Err != nil || msg.Answer == nil {
		err := msg.Err
		if err == nil {
			err = ErrNoChatService
		}
		v.err = err
		if n := len(v.entries); n > 0 && v.entries[n-1].turn.Role == domain.RoleUser {
			v.input.SetValue(v.entries[n-1].turn.Content)
			v.entries = v.entries[:n-1]
		}
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(err.Error())
		v.refreshTranscript()
		return
	}

	v.err = nil
	v.entries = append(v.entries, entry{
		turn:    domain.ConversationTurn{Role: domain.RoleAssistant, Content: msg.Answer.Text},
		sources: msg.Answer.Sources,
	})
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetSourceCount(len(msg.Answer.Sources))
	v.refreshTranscript()
}

func (v *View) refreshTranscript() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.entries) == 0 {
		return v.styles.Muted.Render("Ask anything about the documents in " + v.namespace + ".")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	blocks := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		var b strings.Builder
		if e.turn.Role == domain.RoleUser {
			b.WriteString(v.styles.UserTurn.Render("You"))
		} else {
			b.WriteString(v.styles.AssistantTurn.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(e.turn.Content))
		if len(e.sources) > 0 {
			b.WriteString("\n")
			b.WriteString(v.styles.Source.Render("Sources: " + strings.Join(e.sources, ", ")))
		}
		blocks = append(blocks, b.String())
	}
	if v.pending {
		blocks = append(blocks, v.styles.Muted.Render("Assistant is thinking..."))
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("docchat")+"  "+v.styles.Muted.Render(v.namespace), "")
	sections = append(sections, v.transcript.View(), "")
	sections = append(sections, v.input.View(), "")
	sections = append(sections, v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.transcript.Width = width
	v.transcript.Height = max(height-reservedLines, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refreshTranscript()
}

// Conversation returns a copy of the turns so far, oldest first.
func (v *View) Conversation() []domain.ConversationTurn {
	turns := make([]domain.ConversationTurn, len(v.entries))
	for i, e := range v.entries {
		turns[i] = e.turn
	}
	return turns
}

// LastSources returns the sources of the most recent answer.
func (v *View) LastSources() []string {
	for i := len(v.entries) - 1; i >= 0; i-- {
		if v.entries[i].turn.Role == domain.RoleAssistant {
			return v.entries[i].sources
		}
	}
	return nil
}

// Pending returns true while an answer is awaited.
func (v *View) Pending() bool {
	return v.pending
}

// Namespace returns the namespace the view chats against.
func (v *View) Namespace() string {
	return v.namespace
}

// Input returns the typed, unsent text.
func (v *View) Input() string {
	return v.input.Value()
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Reset starts a new conversation.
func (v *View) Reset() {
	v.entries = nil
	v.pending = false
	v.err = nil
	v.input.Reset()
	v.input.Focus()
	v.statusbar.Clear()
	v.refreshTranscript()
}
