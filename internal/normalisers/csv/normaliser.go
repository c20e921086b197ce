// Package csv provides a Normaliser that reads CSV and TSV files, including
// Google Sheets exports, as a single table.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// DefaultMaxRows caps the rows kept per table.
const DefaultMaxRows = 500

// Normaliser handles delimited text documents.
type Normaliser struct {
	maxRows int
}

// New creates a CSV normaliser. Rows beyond maxRows are dropped;
// maxRows <= 0 selects DefaultMaxRows.
func New(maxRows int) *Normaliser {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Normaliser{maxRows: maxRows}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/csv", "text/tab-separated-values", "application/csv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 60 // Ahead of plaintext for text/csv
}

// Normalise parses the document into one table. The first record is the header.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := bytes.TrimPrefix(raw.Content, []byte("\ufeff"))
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	if raw.MIMEType == "text/tab-separated-values" {
		reader.Comma = '\t'
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &driven.NormaliseResult{Title: normalisers.Title(raw)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %w", domain.ErrInvalidInput, err)
	}

	table := domain.Table{Columns: trimAll(header)}
	for len(table.Rows) < n.maxRows {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse csv: %w", domain.ErrInvalidInput, err)
		}
		if isBlank(record) {
			continue
		}
		row := make([]string, len(table.Columns))
		copy(row, trimAll(record))
		table.Rows = append(table.Rows, row)
	}

	return &driven.NormaliseResult{
		Title:  normalisers.Title(raw),
		Tables: []domain.Table{table},
	}, nil
}

func trimAll(record []string) []string {
	out := make([]string, len(record))
	for i, s := range record {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func isBlank(record []string) bool {
	for _, s := range record {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
