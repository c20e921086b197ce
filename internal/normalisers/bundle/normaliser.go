// Package bundle provides a Normaliser for pre-extracted documents.
//
// A bundle is a JSON file produced by an external extraction pipeline:
//
//	{
//	  "name": "Q3 report",
//	  "texts": ["Revenue grew in Q3.", "Costs were flat."],
//	  "tables": [{"columns": ["quarter", "revenue"], "rows": [["Q3", "120"]]}],
//	  "images": ["<base64>"]
//	}
//
// Tables may also be record lists ([{"quarter": "Q3", "revenue": 120}]).
package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType identifies extraction bundles.
const MIMEType = "application/vnd.docchat.bundle+json"

// Normaliser handles extraction bundles.
type Normaliser struct{}

// New creates a new bundle normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 90
}

// File is the JSON layout of a bundle.
type File struct {
	ID     string            `json:"id,omitempty"`
	Name   string            `json:"name,omitempty"`
	URL    string            `json:"url,omitempty"`
	Texts  []string          `json:"texts,omitempty"`
	Tables []json.RawMessage `json:"tables,omitempty"`
	Images []string          `json:"images,omitempty"`
}

// Parse decodes a bundle file.
func Parse(content []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("%w: parse bundle: %w", domain.ErrInvalidInput, err)
	}
	return &f, nil
}

// Normalise passes the bundle's elements through as pre-split chunks.
// Blank texts are dropped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	f, err := Parse(raw.Content)
	if err != nil {
		return nil, err
	}

	result := &driven.NormaliseResult{Title: f.Name, Images: f.Images}
	if result.Title == "" {
		result.Title = normalisers.Title(raw)
	}
	for _, text := range f.Texts {
		if strings.TrimSpace(text) != "" {
			result.Chunks = append(result.Chunks, text)
		}
	}
	for i, rawTable := range f.Tables {
		table, err := DecodeTable(rawTable)
		if err != nil {
			return nil, fmt.Errorf("%w: table %d: %w", domain.ErrInvalidInput, i, err)
		}
		result.Tables = append(result.Tables, table)
	}
	return result, nil
}

// DecodeTable accepts either {"columns", "rows"} or a list of records.
func DecodeTable(raw json.RawMessage) (domain.Table, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var records []map[string]any
		if err := json.Unmarshal(raw, &records); err != nil {
			return domain.Table{}, err
		}
		table := domain.TableFromRecords(records)
		if err := table.Validate(); err != nil {
			return domain.Table{}, err
		}
		return table, nil
	}

	var table domain.Table
	if err := json.Unmarshal(raw, &table); err != nil {
		return domain.Table{}, err
	}
	if err := table.Validate(); err != nil {
		return domain.Table{}, err
	}
	return table, nil
}
