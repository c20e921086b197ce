// Package styles holds the lipgloss styles shared by the TUI views.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Palette is the set of colours the styles are built from. Each colour
// adapts to light and dark terminal backgrounds.
type Palette struct {
	Accent    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Dim       lipgloss.AdaptiveColor
	Good      lipgloss.AdaptiveColor
	Pending   lipgloss.AdaptiveColor
	Bad       lipgloss.AdaptiveColor
	Frame     lipgloss.AdaptiveColor
	Bar       lipgloss.AdaptiveColor
}

// DefaultPalette is the palette used unless a caller supplies its own.
var DefaultPalette = Palette{
	Accent:    lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"},
	Highlight: lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#67E8F9"},
	Text:      lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
	Dim:       lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
	Good:      lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"},
	Pending:   lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#FDE68A"},
	Bad:       lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"},
	Frame:     lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
	Bar:       lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
}

// Styles are the rendered styles, built once per app.
type Styles struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	// Transcript labels and cited sources.
	UserTurn      lipgloss.Style
	AssistantTurn lipgloss.Style
	Source        lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailure lipgloss.Style
	StatusPending lipgloss.Style
}

// New builds styles from p.
func New(p Palette) *Styles {
	fg := func(c lipgloss.AdaptiveColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		Title:      fg(p.Accent).Bold(true),
		Subtitle:   fg(p.Highlight).Bold(true),
		Normal:     fg(p.Text),
		Muted:      fg(p.Dim),
		Selected:   fg(p.Bar).Background(p.Accent).Bold(true),
		Error:      fg(p.Bad),
		Success:    fg(p.Good),
		Warning:    fg(p.Pending),
		InputField: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Frame).Padding(0, 1),
		StatusBar:  fg(p.Dim).Background(p.Bar).Padding(0, 1),
		Help:       fg(p.Dim),
		Border:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Frame),

		UserTurn:      fg(p.Highlight).Bold(true),
		AssistantTurn: fg(p.Accent).Bold(true),
		Source:        fg(p.Dim).Italic(true),

		StatusSuccess: fg(p.Good),
		StatusFailure: fg(p.Bad).Bold(true),
		StatusPending: fg(p.Pending),
	}
}

// DefaultStyles builds styles from DefaultPalette.
func DefaultStyles() *Styles {
	return New(DefaultPalette)
}

// Status returns the style for an ingestion state. Unknown states render
// as pending.
func (s *Styles) Status(status domain.IngestStatus) lipgloss.Style {
	switch status {
	case domain.StatusSuccess:
		return s.StatusSuccess
	case domain.StatusFailure:
		return s.StatusFailure
	default:
		return s.StatusPending
	}
}
