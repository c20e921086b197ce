package domain

import (
	"fmt"
	"time"
)

// IngestStatus is the ingestion state of a source document.
type IngestStatus string

// Ingestion states. A document moves IN_PROGRESS then SUCCESS or FAILURE.
const (
	StatusInProgress IngestStatus = "IN_PROGRESS"
	StatusSuccess    IngestStatus = "SUCCESS"
	StatusFailure    IngestStatus = "FAILURE"
)

// IsValid returns true if the status is recognised.
func (s IngestStatus) IsValid() bool {
	switch s {
	case StatusInProgress, StatusSuccess, StatusFailure:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s IngestStatus) String() string {
	return string(s)
}

// DocumentStatus records the ingestion outcome of one source document.
type DocumentStatus struct {
	DocumentID      string       `json:"document_id"`
	TenantIndexName string       `json:"tenant_index_name"`
	Name            string       `json:"name,omitempty"`
	URL             string       `json:"url,omitempty"`
	Status          IngestStatus `json:"status"`
	Error           string       `json:"error,omitempty"`
	ContentCount    int          `json:"content_count"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// ExtractedDocument is the output of document extraction: the three
// element lists of one source document plus its identity.
type ExtractedDocument struct {
	SourceDocumentID string   `json:"source_document_id"`
	TenantIndexName  string   `json:"tenant_index_name"`
	Name             string   `json:"name,omitempty"`
	URL              string   `json:"url,omitempty"`
	Texts            []string `json:"texts,omitempty"`
	Tables           []Table  `json:"tables,omitempty"`
	Images           []string `json:"images,omitempty"`
}

// Validate checks the document identity fields.
func (d *ExtractedDocument) Validate() error {
	if d.SourceDocumentID == "" {
		return fmt.Errorf("%w: source_document_id is required", ErrInvalidInput)
	}
	if d.TenantIndexName == "" {
		return fmt.Errorf("%w: tenant_index_name is required", ErrInvalidInput)
	}
	return nil
}

// ElementCount returns the total number of extracted elements.
func (d *ExtractedDocument) ElementCount() int {
	return len(d.Texts) + len(d.Tables) + len(d.Images)
}
