// Package menu is the landing view: pick chat, documents or help.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. An entry with Quit set ends the program.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

var quitKey = key.NewBinding(key.WithKeys("q"))

// View is the menu.
type View struct {
	styles    *styles.Styles
	keys      *keymap.KeyMap
	namespace string
	items     []Item
	selected  int
	width     int
	height    int
	ready     bool
}

// NewView creates the menu for namespace. The Documents entry appears only
// when a document service is available.
func NewView(s *styles.Styles, namespace string, withDocuments bool) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	items := []Item{{Label: "Chat", Description: "ask questions about the documents", View: messages.ViewChat}}
	if withDocuments {
		items = append(items, Item{
			Label: "Documents", Description: "ingestion status and deletion", View: messages.ViewDocuments,
		})
	}
	items = append(items,
		Item{Label: "Help", Description: "keys and commands", View: messages.ViewHelp},
		Item{Label: "Quit", Quit: true},
	)

	return &View{
		styles:    s,
		keys:      keymap.DefaultKeyMap(),
		namespace: namespace,
		items:     items,
		width:     80,
		height:    24,
	}
}

// Init implements the view contract; the menu has no startup work.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and emits a ViewChanged when an entry is chosen.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.selected = max(v.selected-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case key.Matches(msg, v.keys.Select):
			return v, v.choose(v.items[v.selected])
		case key.Matches(msg, quitKey):
			return v, tea.Quit
		}
	}
	return v, nil
}

func (v *View) choose(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("docchat"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Chat with the documents of " + v.namespace))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("  %-10s", item.Label)
		if i == v.selected {
			label = v.styles.Selected.Render(fmt.Sprintf("> %-10s", item.Label))
		} else {
			label = v.styles.Normal.Render(label)
		}
		b.WriteString(label)
		if item.Description != "" {
			b.WriteString(" " + v.styles.Muted.Render(item.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}

// Selected returns the cursor position.
func (v *View) Selected() int {
	return v.selected
}
