package drive

import (
	"strconv"
	"strings"
)

// ContentType identifies what content to sync from Google Drive.
type ContentType string

const (
	// ContentFiles syncs uploaded files (office documents, PDFs, images).
	ContentFiles ContentType = "files"
	// ContentDocs syncs Google Docs (exported to text).
	ContentDocs ContentType = "docs"
	// ContentSheets syncs Google Sheets (exported to CSV text).
	ContentSheets ContentType = "sheets"
	// ContentSlides syncs Google Slides (exported to pptx).
	ContentSlides ContentType = "slides"
)

// DefaultContentTypes are the content types synced by default.
var DefaultContentTypes = []ContentType{ContentFiles, ContentDocs, ContentSheets, ContentSlides}

// Uploaded file MIME types listed by default.
var DefaultFileMIMETypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.ms-powerpoint",
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// DefaultMaxFileSize caps downloads (50MB).
const DefaultMaxFileSize = 50 * 1024 * 1024

// Config holds Google Drive connector configuration.
type Config struct {
	// ContentTypes specifies what types of content to sync.
	ContentTypes []ContentType
	// FileMIMETypes limits uploaded files to these MIME types.
	FileMIMETypes []string
	// FolderIDs limits syncing to direct children of these folders (optional).
	FolderIDs []string
	// PageSize is the page size for list requests.
	PageSize int64
	// MaxFileSize skips larger files.
	MaxFileSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContentTypes:  DefaultContentTypes,
		FileMIMETypes: DefaultFileMIMETypes,
		PageSize:      100,
		MaxFileSize:   DefaultMaxFileSize,
	}
}

// ParseConfig reads configuration from flat key/value pairs
// (content_types, mime_types, folder_ids, page_size, max_file_size).
func ParseConfig(values map[string]string) *Config {
	cfg := DefaultConfig()

	if val := values["content_types"]; val != "" {
		cfg.ContentTypes = nil
		for _, t := range splitList(val) {
			ct := ContentType(t)
			if isValidContentType(ct) {
				cfg.ContentTypes = append(cfg.ContentTypes, ct)
			}
		}
	}

	if val := values["mime_types"]; val != "" {
		cfg.FileMIMETypes = splitList(val)
	}

	if val := values["folder_ids"]; val != "" {
		cfg.FolderIDs = splitList(val)
	}

	if n, err := strconv.ParseInt(values["page_size"], 10, 64); err == nil && n > 0 {
		cfg.PageSize = min(n, 1000)
	}

	if n, err := strconv.ParseInt(values["max_file_size"], 10, 64); err == nil && n > 0 {
		cfg.MaxFileSize = n
	}

	return cfg
}

// HasContentType checks if a content type is enabled.
func (c *Config) HasContentType(ct ContentType) bool {
	for _, t := range c.ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

func isValidContentType(ct ContentType) bool {
	switch ct {
	case ContentFiles, ContentDocs, ContentSheets, ContentSlides:
		return true
	default:
		return false
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
