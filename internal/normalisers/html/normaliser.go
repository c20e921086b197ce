package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to text plus its tables.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)

	title := extractHTMLTitle(content)
	if title == "" {
		title = normalisers.Title(raw)
	}

	content = stripInvisible(content)
	body, tables := extractTables(content)

	return &driven.NormaliseResult{
		Title:  title,
		Text:   stripHTML(body),
		Tables: tables,
	}, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	tableTag          = regexp.MustCompile(`(?is)<table[^>]*>(.*?)</table>`)
	rowTag            = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	cellTag           = regexp.MustCompile(`(?is)<t[hd][^>]*>(.*?)</t[hd]>`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|blockquote|pre|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|blockquote|pre|section|article)[^>]*>`)
	lineBreaks        = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
)

// extractHTMLTitle returns the decoded <title>, if any.
func extractHTMLTitle(content string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(matches[1]))
}

// stripInvisible removes elements that never render as text.
func stripInvisible(content string) string {
	for _, re := range []*regexp.Regexp{scriptTag, styleTag, noscriptTag, headTag, svgTag, htmlComments} {
		content = re.ReplaceAllString(content, "")
	}
	return content
}

// extractTables removes every <table> from content and returns each as a
// Table whose first row is the header. Tables with no cells are dropped.
func extractTables(content string) (string, []domain.Table) {
	var tables []domain.Table
	body := tableTag.ReplaceAllStringFunc(content, func(match string) string {
		inner := tableTag.FindStringSubmatch(match)[1]

		var rows [][]string
		for _, tr := range rowTag.FindAllStringSubmatch(inner, -1) {
			var cells []string
			for _, td := range cellTag.FindAllStringSubmatch(tr[1], -1) {
				cells = append(cells, cellText(td[1]))
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
		if len(rows) == 0 {
			return "\n"
		}

		table := domain.Table{Columns: rows[0]}
		for _, row := range rows[1:] {
			fitted := make([]string, len(table.Columns))
			copy(fitted, row)
			table.Rows = append(table.Rows, fitted)
		}
		tables = append(tables, table)
		return "\n"
	})
	return body, tables
}

func cellText(fragment string) string {
	text := allTags.ReplaceAllString(fragment, " ")
	text = strings.ReplaceAll(html.UnescapeString(text), "\u00a0", " ")
	return strings.Join(strings.Fields(text), " ")
}

// stripHTML removes HTML tags and extracts readable text, one block per line.
func stripHTML(content string) string {
	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = lineBreaks.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = strings.ReplaceAll(content, "\u00a0", " ")
	content = multiSpaces.ReplaceAllString(content, " ")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
