package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/logger"
)

// ChangeType classifies a watched change.
type ChangeType string

const (
	// ChangeUpserted means a file was created or modified.
	ChangeUpserted ChangeType = "upserted"
	// ChangeRemoved means a file was deleted or moved away.
	ChangeRemoved ChangeType = "removed"
)

// Change is one settled filesystem change.
type Change struct {
	Type ChangeType
	// DocumentID is set for every change.
	DocumentID string
	// Document is set for upserts.
	Document *domain.RawDocument
}

// DefaultSettle is how long a file must stay quiet before it is read.
const DefaultSettle = 250 * time.Millisecond

// Watch reports changes to files directly under the root until ctx is
// cancelled or the connector is closed. Bursts of writes to one file are
// collapsed into a single upsert once the file has been quiet for settle.
func (c *Connector) Watch(ctx context.Context, settle time.Duration) (<-chan Change, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(c.rootPath); err != nil {
		watcher.Close() //nolint:errcheck
		return nil, fmt.Errorf("watch %s: %w", c.rootPath, err)
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.watcher.Close() //nolint:errcheck
	}
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan Change)
	go c.watchLoop(ctx, watcher, settle, changes)
	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, settle time.Duration, out chan<- Change) {
	defer close(out)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	emit := func(ch Change) bool {
		select {
		case out <- ch:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if isHidden(filepath.Base(event.Name)) {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				delete(pending, event.Name)
				if !emit(Change{Type: ChangeRemoved, DocumentID: c.forget(event.Name)}) {
					return
				}
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				pending[event.Name] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, path)

				info, err := os.Stat(path)
				if err != nil || !info.Mode().IsRegular() {
					continue
				}
				doc, err := c.Read(path)
				if err != nil {
					if !errors.Is(err, os.ErrNotExist) {
						logger.Warn("Skipping %s: %v", path, err)
					}
					continue
				}
				if !emit(Change{Type: ChangeUpserted, DocumentID: doc.ID, Document: doc}) {
					return
				}
			}
		}
	}
}
