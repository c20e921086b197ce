// Package filesystem implements a connector over a local folder. It serves
// one-shot syncs and, through Watch, a drop folder whose new and changed
// files are ingested as they land. Files named *.bundle.json are
// extraction bundles and keep the document ID and URL they declare.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/normalisers/bundle"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// BundleSuffix marks extraction bundle files.
const BundleSuffix = ".bundle.json"

// MaxFileSize skips larger files.
const MaxFileSize = 64 * 1024 * 1024

// extensionTypes covers extensions the mime package may not know.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	".html":     "text/html",
	".htm":      "text/html",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx":     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".pdf":      "application/pdf",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".png":      "image/png",
	".gif":      "image/gif",
	".webp":     "image/webp",
}

// Connector reads documents from a local directory tree.
type Connector struct {
	rootPath string
	mu       sync.Mutex
	closed   bool
	watcher  *fsnotify.Watcher
	// ids remembers the document ID read from each path, so removals of
	// bundles map back to the ID they declared.
	ids map[string]string
}

// New creates a filesystem connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath, ids: make(map[string]string)}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// Validate checks the root path is an existing directory.
func (c *Connector) Validate(_ context.Context) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}
	if c.rootPath == "" {
		return fmt.Errorf("%w: root path is required", domain.ErrConfiguration)
	}
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrConfiguration, c.rootPath)
	}
	return nil
}

// FullSync walks the directory tree, skipping hidden entries.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsChan := make(chan domain.RawDocument)
	errsChan := make(chan error, 1)

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		if c.isClosed() {
			errsChan <- domain.ErrConnectorClosed
			return
		}

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			doc, err := c.Read(path)
			if err != nil {
				logger.Warn("Skipping %s: %v", path, err)
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case docsChan <- *doc:
				return nil
			}
		})
		if err != nil && ctx.Err() == nil {
			errsChan <- fmt.Errorf("walk %s: %w", c.rootPath, err)
		}
	}()

	return docsChan, errsChan
}

// Close stops any active watcher.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Read loads one file as a RawDocument.
func (c *Connector) Read(path string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	doc := &domain.RawDocument{
		ID:       c.DocumentID(path),
		Name:     filepath.Base(path),
		URI:      "file://" + filepath.ToSlash(abs),
		MIMEType: DetectMIMEType(path),
		Content:  content,
		Metadata: map[string]any{
			"path":          path,
			"size":          info.Size(),
			"modified_time": info.ModTime(),
		},
	}

	if doc.MIMEType == bundle.MIMEType {
		f, err := bundle.Parse(content)
		if err != nil {
			return nil, err
		}
		if f.ID != "" {
			doc.ID = f.ID
		}
		if f.URL != "" {
			doc.URI = f.URL
		}
		if f.Name != "" {
			doc.Name = f.Name
		}
	}

	c.mu.Lock()
	c.ids[path] = doc.ID
	c.mu.Unlock()

	return doc, nil
}

// DocumentID derives a stable ID from the path relative to the root.
func (c *Connector) DocumentID(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		rel = path
	}
	return "fs:" + filepath.ToSlash(rel)
}

// DetectMIMEType maps a file name to a MIME type, defaulting to
// application/octet-stream.
func DetectMIMEType(path string) string {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, BundleSuffix) {
		return bundle.MIMEType
	}
	ext := filepath.Ext(name)
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
	}
	return "application/octet-stream"
}

// forget returns and drops the document ID last read from path.
func (c *Connector) forget(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.ids[path]; ok {
		delete(c.ids, path)
		return id
	}
	return c.DocumentID(path)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
