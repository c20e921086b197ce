// Package drive implements a Google Drive connector. It lists office
// documents, PDFs, images and Google Workspace files, exporting Docs to
// text, Sheets to CSV and Slides to pptx.
package drive

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/docchat/internal/connectors/google"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector fetches documents from Google Drive.
type Connector struct {
	svc     *drive.Service
	config  *Config
	limiter *google.RateLimiter
	mu      sync.Mutex
	closed  bool
}

// New creates a Drive connector over an authenticated service.
// A nil cfg uses DefaultConfig and a nil limiter the default Drive limits.
func New(svc *drive.Service, cfg *Config, limiter *google.RateLimiter) *Connector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if limiter == nil {
		limiter = google.NewRateLimiter(google.DefaultDriveRateLimit)
	}
	return &Connector{svc: svc, config: cfg, limiter: limiter}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "gdrive"
}

// Validate checks the credentials with a lightweight about.get call.
func (c *Connector) Validate(ctx context.Context) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}

	var about *drive.About
	err := c.call(ctx, func() error {
		var err error
		about, err = c.svc.About.Get().Fields("user").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("validate drive credentials: %w", err)
	}
	if about.User != nil {
		logger.Debug("Drive authenticated as %s", about.User.EmailAddress)
	}
	return nil
}

// FullSync lists every matching file and emits one RawDocument per file.
// Listing failures end the sync; a file that cannot be fetched is skipped
// with a warning.
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

		query := BuildQuery(c.config)
		logger.Debug("Drive query: %s", query)

		pageToken := ""
		for {
			var page *drive.FileList
			err := c.call(ctx, func() error {
				var err error
				page, err = c.svc.Files.List().
					Q(query).
					PageSize(c.config.PageSize).
					PageToken(pageToken).
					Fields(listFields).
					SupportsAllDrives(true).
					IncludeItemsFromAllDrives(true).
					Context(ctx).
					Do()
				return err
			})
			if err != nil {
				errsChan <- fmt.Errorf("list drive files: %w", err)
				return
			}

			for _, file := range page.Files {
				if !ShouldSyncFile(file, c.config) {
					continue
				}

				var doc *domain.RawDocument
				err := c.call(ctx, func() error {
					var err error
					doc, err = FileToRawDocument(ctx, c.svc, file, c.config.MaxFileSize)
					return err
				})
				if ctx.Err() != nil {
					return
				}
				if err != nil {
					logger.Warn("Skipping drive file %s (%s): %v", file.Name, file.Id, err)
					continue
				}

				select {
				case <-ctx.Done():
					return
				case docsChan <- *doc:
				}
			}

			if page.NextPageToken == "" {
				return
			}
			pageToken = page.NextPageToken
		}
	}()

	return docsChan, errsChan
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// call runs fn under the shared Drive rate limiter.
func (c *Connector) call(ctx context.Context, fn func() error) error {
	return c.limiter.Do(ctx, fn)
}
