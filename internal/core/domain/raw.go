package domain

// RawDocument represents opaque bytes fetched by a connector.
// It is the connector's output before extraction.
type RawDocument struct {
	// ID is the stable source document ID.
	ID string

	// Name is the human-readable title.
	Name string

	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "text/csv").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains connector-specific key-value pairs.
	Metadata map[string]any
}
