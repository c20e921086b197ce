// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text,
// tables and images from a specific MIME type.
//
// Normalisers are registered with the extraction service at startup.
package normalisers

import (
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Title returns the title a connector recorded in metadata, else one derived
// from the document URI ("q3_report-final.docx" becomes "q3 report final").
func Title(raw *domain.RawDocument) string {
	if raw.Metadata != nil {
		if title, ok := raw.Metadata["title"].(string); ok && title != "" {
			return title
		}
	}
	if raw.Name != "" {
		return raw.Name
	}
	return TitleFromURI(raw.URI)
}

// TitleFromURI derives a human-readable title from a file name.
func TitleFromURI(uri string) string {
	filename := filepath.Base(uri)
	if filename == "." || filename == "/" {
		return ""
	}
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.NewReplacer("_", " ", "-", " ").Replace(filename)
}
