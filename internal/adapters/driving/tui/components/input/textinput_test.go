package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
)

func TestNewPromptInput(t *testing.T) {
	input := NewPromptInput(styles.DefaultStyles())

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())
}

func TestNewPromptInput_NilStyles(t *testing.T) {
	input := NewPromptInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestPromptInput_Init(t *testing.T) {
	input := NewPromptInput(nil)

	// Blink command should be returned
	assert.NotNil(t, input.Init())
}

func TestPromptInput_Update(t *testing.T) {
	input := NewPromptInput(nil)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h', 'i'}}
	updated, _ := input.Update(msg)

	assert.Equal(t, input, updated)
	assert.Equal(t, "hi", input.Value())
}

func TestPromptInput_Question(t *testing.T) {
	input := NewPromptInput(nil)

	input.SetValue("  what is our refund policy?  ")
	assert.Equal(t, "what is our refund policy?", input.Question())

	input.SetValue("   ")
	assert.Equal(t, "", input.Question())
}

func TestPromptInput_View(t *testing.T) {
	input := NewPromptInput(nil)

	assert.Contains(t, input.View(), "You:")
}

func TestPromptInput_FocusBlur(t *testing.T) {
	input := NewPromptInput(nil)

	input.Blur()
	assert.False(t, input.Focused())

	input.Focus()
	assert.True(t, input.Focused())
}

func TestPromptInput_SetWidth(t *testing.T) {
	input := NewPromptInput(nil)

	input.SetWidth(100)
	assert.Equal(t, 100, input.Width())
	assert.Equal(t, 88, input.textinput.Width)

	input.SetWidth(10)
	assert.Equal(t, 20, input.textinput.Width)
}

func TestPromptInput_Reset(t *testing.T) {
	input := NewPromptInput(nil)
	input.SetValue("draft")

	input.Reset()

	assert.Equal(t, "", input.Value())
}
