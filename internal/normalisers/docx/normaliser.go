// Package docx provides a Normaliser for Word documents. Paragraph text,
// tables and embedded images are extracted separately.
package docx

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the Word document MIME type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

// Normalise extracts body text, tables and media images from a DOCX file.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := normalisers.OpenZip(raw.Content)
	if err != nil {
		return nil, err
	}

	body, err := normalisers.ReadPart(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, domain.ErrInvalidInput
	}
	text, tables, err := parseDocumentXML(body)
	if err != nil {
		return nil, err
	}

	title := normalisers.CoreTitle(reader)
	if title == "" {
		title = normalisers.Title(raw)
	}

	return &driven.NormaliseResult{
		Title:  title,
		Text:   text,
		Tables: tables,
		Images: normalisers.MediaImages(reader, "word/media/"),
	}, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []table     `xml:"tbl"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

type table struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []paragraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

func (p paragraph) text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// parseDocumentXML returns top-level paragraph text and every table.
// The first table row is taken as the header.
func parseDocumentXML(content []byte) (string, []domain.Table, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", nil, domain.ErrInvalidInput
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		if line := strings.TrimSpace(para.text()); line != "" {
			lines = append(lines, line)
		}
	}

	var tables []domain.Table
	for _, tbl := range doc.Body.Tables {
		var rows [][]string
		for _, tr := range tbl.Rows {
			row := make([]string, 0, len(tr.Cells))
			for _, tc := range tr.Cells {
				parts := make([]string, 0, len(tc.Paragraphs))
				for _, p := range tc.Paragraphs {
					if s := strings.TrimSpace(p.text()); s != "" {
						parts = append(parts, s)
					}
				}
				row = append(row, strings.Join(parts, " "))
			}
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			continue
		}
		t := domain.Table{Columns: rows[0]}
		for _, row := range rows[1:] {
			fitted := make([]string, len(t.Columns))
			copy(fitted, row)
			t.Rows = append(t.Rows, fitted)
		}
		tables = append(tables, t)
	}

	return strings.Join(lines, "\n"), tables, nil
}
