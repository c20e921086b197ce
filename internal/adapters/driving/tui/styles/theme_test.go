package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestDefaultPalette_StateColoursDiffer(t *testing.T) {
	p := DefaultPalette
	for _, mode := range []func(lipgloss.AdaptiveColor) string{
		func(c lipgloss.AdaptiveColor) string { return c.Light },
		func(c lipgloss.AdaptiveColor) string { return c.Dark },
	} {
		seen := map[string]bool{}
		for _, c := range []lipgloss.AdaptiveColor{p.Good, p.Pending, p.Bad} {
			v := mode(c)
			require.NotEmpty(t, v)
			assert.False(t, seen[v], "duplicate state colour %s", v)
			seen[v] = true
		}
	}
}

func TestDefaultStyles_Initialised(t *testing.T) {
	s := DefaultStyles()
	require.NotNil(t, s)

	for name, style := range map[string]lipgloss.Style{
		"Title":         s.Title,
		"Selected":      s.Selected,
		"InputField":    s.InputField,
		"StatusBar":     s.StatusBar,
		"UserTurn":      s.UserTurn,
		"AssistantTurn": s.AssistantTurn,
		"Source":        s.Source,
	} {
		assert.NotEqual(t, lipgloss.Style{}, style, name)
		assert.Contains(t, style.Render("text"), "text", name)
	}
}

func TestStyles_Status(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, s.StatusSuccess, s.Status(domain.StatusSuccess))
	assert.Equal(t, s.StatusFailure, s.Status(domain.StatusFailure))
	assert.Equal(t, s.StatusPending, s.Status(domain.StatusInProgress))
	assert.Equal(t, s.StatusPending, s.Status(domain.IngestStatus("UNKNOWN")))
}
