package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
	ExportMimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// MaxExportSize is the Drive API limit for exported content (10MB).
const MaxExportSize = 10 * 1024 * 1024

// listFields is the partial response requested from files.list.
const listFields = "nextPageToken, files(id, name, mimeType, size, webViewLink, modifiedTime, parents, trashed)"

// exportMIME returns the export format for a Workspace file, or "" for
// files that are downloaded as is.
func exportMIME(mimeType string) string {
	switch mimeType {
	case MimeTypeGoogleDoc:
		return ExportMimeText
	case MimeTypeGoogleSheet:
		return ExportMimeCSV
	case MimeTypeGoogleSlides:
		return ExportMimePPTX
	default:
		return ""
	}
}

// BuildQuery returns the files.list query for cfg.
func BuildQuery(cfg *Config) string {
	var types []string
	if cfg.HasContentType(ContentFiles) {
		types = append(types, cfg.FileMIMETypes...)
	}
	if cfg.HasContentType(ContentDocs) {
		types = append(types, MimeTypeGoogleDoc)
	}
	if cfg.HasContentType(ContentSheets) {
		types = append(types, MimeTypeGoogleSheet)
	}
	if cfg.HasContentType(ContentSlides) {
		types = append(types, MimeTypeGoogleSlides)
	}

	clauses := []string{"trashed = false"}
	if len(types) > 0 {
		parts := make([]string, len(types))
		for i, t := range types {
			parts[i] = fmt.Sprintf("mimeType = '%s'", quote(t))
		}
		clauses = append(clauses, "("+strings.Join(parts, " or ")+")")
	}
	if len(cfg.FolderIDs) > 0 {
		parts := make([]string, len(cfg.FolderIDs))
		for i, id := range cfg.FolderIDs {
			parts[i] = fmt.Sprintf("'%s' in parents", quote(id))
		}
		clauses = append(clauses, "("+strings.Join(parts, " or ")+")")
	}
	return strings.Join(clauses, " and ")
}

func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// ShouldSyncFile checks if a listed file should be fetched.
func ShouldSyncFile(file *drive.File, cfg *Config) bool {
	if file.MimeType == MimeTypeFolder || file.Trashed {
		return false
	}
	if exportMIME(file.MimeType) == "" && cfg.MaxFileSize > 0 && file.Size > cfg.MaxFileSize {
		return false
	}

	switch file.MimeType {
	case MimeTypeGoogleDoc:
		return cfg.HasContentType(ContentDocs)
	case MimeTypeGoogleSheet:
		return cfg.HasContentType(ContentSheets)
	case MimeTypeGoogleSlides:
		return cfg.HasContentType(ContentSlides)
	}

	if !cfg.HasContentType(ContentFiles) {
		return false
	}
	for _, mt := range cfg.FileMIMETypes {
		if file.MimeType == mt {
			return true
		}
	}
	return false
}

// FileToRawDocument downloads or exports a Drive file.
func FileToRawDocument(ctx context.Context, svc *drive.Service, file *drive.File, maxSize int64) (*domain.RawDocument, error) {
	content, mimeType, err := fetchFileContent(ctx, svc, file, maxSize)
	if err != nil {
		return nil, err
	}

	return &domain.RawDocument{
		ID:       file.Id,
		Name:     file.Name,
		URI:      WebURL(file),
		MIMEType: mimeType,
		Content:  content,
		Metadata: map[string]any{
			"file_id":       file.Id,
			"title":         file.Name,
			"source_mime":   file.MimeType,
			"size":          file.Size,
			"modified_time": file.ModifiedTime,
		},
	}, nil
}

// fetchFileContent returns the file bytes and the MIME type they are in.
func fetchFileContent(ctx context.Context, svc *drive.Service, file *drive.File, maxSize int64) ([]byte, string, error) {
	if export := exportMIME(file.MimeType); export != "" {
		resp, err := svc.Files.Export(file.Id, export).Context(ctx).Download()
		if err != nil {
			return nil, "", fmt.Errorf("export file: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := readLimited(resp.Body, MaxExportSize)
		if err != nil {
			return nil, "", fmt.Errorf("read export: %w", err)
		}
		return data, export, nil
	}

	resp, err := svc.Files.Get(file.Id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	data, err := readLimited(resp.Body, maxSize)
	if err != nil {
		return nil, "", fmt.Errorf("read file content: %w", err)
	}
	return data, file.MimeType, nil
}

// readLimited reads at most limit bytes and fails on anything longer
// rather than returning a truncated document.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", domain.ErrInvalidInput, limit)
	}
	return data, nil
}
