package domain

import "strconv"

// Well-known keys in vector entry metadata.
const (
	MetaContentID        = "content_id"
	MetaSourceDocumentID = "source_document_id"
	MetaModality         = "modality"
	MetaPageNumber       = "page_number"
)

// VectorEntry is a summary embedding linked to a ContentRecord.
type VectorEntry struct {
	// ContentID is the key of the entry within its namespace.
	ContentID string

	// Vector is the summary embedding.
	Vector []float32

	// Metadata always carries MetaContentID; see EntryMetadata.
	Metadata map[string]string
}

// VectorMatch is one similarity search result.
type VectorMatch struct {
	// ContentID is the entry key. Retrieval reads the ID from Metadata instead.
	ContentID string

	// Score is the cosine similarity, higher is closer.
	Score float64

	// Metadata is the entry metadata as stored.
	Metadata map[string]string
}

// EntryMetadata builds the vector metadata for a content record.
func EntryMetadata(contentID string, meta Metadata) map[string]string {
	m := map[string]string{
		MetaContentID:        contentID,
		MetaSourceDocumentID: meta.SourceDocumentID,
	}
	if meta.Modality != "" {
		m[MetaModality] = meta.Modality.String()
	}
	if meta.PageNumber != nil {
		m[MetaPageNumber] = strconv.Itoa(*meta.PageNumber)
	}
	return m
}
