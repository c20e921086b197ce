package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Modality is the kind of a content fragment.
type Modality string

// Available modalities.
const (
	ModalityText  Modality = "text"
	ModalityTable Modality = "table"
	ModalityImage Modality = "image"
)

// IsValid returns true if the modality is recognised.
func (m Modality) IsValid() bool {
	switch m {
	case ModalityText, ModalityTable, ModalityImage:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m Modality) String() string {
	return string(m)
}

// Table is a structured tabular value.
// Rows are positional and always have len(Columns) cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// TableFromRecords builds a table from record-oriented data
// ([{"col": value, ...}, ...]). Columns are the sorted union of all keys.
func TableFromRecords(records []map[string]any) Table {
	seen := make(map[string]bool)
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := rec[col]; ok && v != nil {
				row[i] = cellString(v)
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}
}

// Validate reports a table that cannot be stored: one without columns, or
// with a row whose width differs from the header.
func (t Table) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("%w: table has no columns", ErrInvalidInput)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: table row %d has %d cells, want %d", ErrInvalidInput, i, len(row), len(t.Columns))
		}
	}
	return nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Content is the classified form of a raw content value.
// The set of implementations is closed: TextContent, TableContent and ImageContent.
type Content interface {
	Modality() Modality
	isContent()
}

// TextContent is a plain text span.
type TextContent struct {
	Text string
}

// TableContent is a structured table.
type TableContent struct {
	Table Table
}

// ImageContent is a base64 encoded image.
type ImageContent struct {
	// Data is the standard base64 encoding of the image bytes.
	Data string

	// Format is the detected container format: jpeg, png, gif or webp.
	Format string
}

func (TextContent) Modality() Modality  { return ModalityText }
func (TableContent) Modality() Modality { return ModalityTable }
func (ImageContent) Modality() Modality { return ModalityImage }

func (TextContent) isContent()  {}
func (TableContent) isContent() {}
func (ImageContent) isContent() {}

// Metadata is the provenance stored alongside every ContentRecord.
type Metadata struct {
	SourceDocumentID string            `json:"source_document_id"`
	TenantIndexName  string            `json:"tenant_index_name"`
	PageNumber       *int              `json:"page_number,omitempty"`
	Modality         Modality          `json:"modality,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// ContentRecord is the raw content of one indexed fragment.
type ContentRecord struct {
	// ID is the content ID shared with the fragment's vector entry.
	ID string

	// Raw is either a string (a text span or a base64 image) or a Table.
	Raw any

	// Metadata is the record's provenance.
	Metadata Metadata
}

// EncodeRaw serialises raw content for storage.
// Strings become JSON strings and tables become JSON objects, so
// DecodeRaw can restore the distinction without a separate type column.
func EncodeRaw(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case string:
		return json.Marshal(v)
	case Table:
		return encodeTable(v)
	case *Table:
		if v == nil {
			return nil, fmt.Errorf("%w: nil table", ErrInvalidInput)
		}
		return encodeTable(*v)
	case []map[string]any:
		return encodeTable(TableFromRecords(v))
	default:
		return nil, fmt.Errorf("%w: unsupported raw content type %T", ErrInvalidInput, raw)
	}
}

// encodeTable refuses tables DecodeRaw could not restore.
func encodeTable(t Table) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

// DecodeRaw restores raw content serialised by EncodeRaw.
// A JSON array of objects is accepted as record-oriented table data.
func DecodeRaw(data []byte) (any, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}

	var t Table
	if err := json.Unmarshal(data, &t); err == nil && len(t.Columns) > 0 {
		return t, nil
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err == nil {
		if t := TableFromRecords(records); len(t.Columns) > 0 {
			return t, nil
		}
	}

	return nil, fmt.Errorf("%w: undecodable raw content", ErrInvalidInput)
}
