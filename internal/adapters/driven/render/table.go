// Package render turns structured tables into text blocks for prompts and
// terminal output.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure TableRenderer implements the interface.
var _ driven.TableRenderer = (*TableRenderer)(nil)

// Style selects the border set of rendered tables.
type Style int

const (
	// StyleMarkdown renders pipe tables. Used for model prompts.
	StyleMarkdown Style = iota
	// StyleBox renders rounded box tables for terminals.
	StyleBox
)

// TableRenderer renders tables with lipgloss. Output carries no ANSI
// styling, so equal tables always render to equal strings.
type TableRenderer struct {
	style Style
}

// NewTableRenderer creates a renderer with the given border style.
func NewTableRenderer(style Style) *TableRenderer {
	return &TableRenderer{style: style}
}

// Render serialises t. An empty table renders as the empty string.
func (r *TableRenderer) Render(t domain.Table) string {
	if len(t.Columns) == 0 && len(t.Rows) == 0 {
		return ""
	}

	tbl := table.New().Rows(normaliseRows(t)...)
	if len(t.Columns) > 0 {
		tbl = tbl.Headers(t.Columns...)
	}

	switch r.style {
	case StyleBox:
		tbl = tbl.Border(lipgloss.RoundedBorder())
	default:
		tbl = tbl.Border(lipgloss.MarkdownBorder()).BorderTop(false).BorderBottom(false)
	}

	lines := strings.Split(tbl.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

// normaliseRows pads short rows and flattens newlines inside cells so
// every row occupies exactly one line.
func normaliseRows(t domain.Table) [][]string {
	width := len(t.Columns)
	for _, row := range t.Rows {
		width = max(width, len(row))
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, width)
		for i, cell := range row {
			cells[i] = strings.Join(strings.Fields(cell), " ")
		}
		rows = append(rows, cells)
	}
	return rows
}
