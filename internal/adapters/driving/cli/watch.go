package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/connectors/filesystem"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Ingest files as they land in a drop folder",
	Long: `Watches a directory and keeps the namespace in step with it. New and
changed files are re-ingested once they stop changing; removed files are
deleted from the namespace. Runs until interrupted.

With --initial the directory is synchronised once before watching.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchSettle  time.Duration
	watchInitial bool
)

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", filesystem.DefaultSettle,
		"How long a file must stay unchanged before it is ingested")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "Synchronise existing files before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil || extractor == nil || documentService == nil {
		return errors.New("ingestion services not configured")
	}

	ctx := commandContext(cmd)
	namespace, err := resolveNamespace(ctx)
	if err != nil {
		return err
	}

	conn := filesystem.New(args[0])
	defer conn.Close() //nolint:errcheck

	if watchInitial && syncService != nil {
		report, err := syncService.Sync(ctx, conn, namespace, driving.SyncOptions{})
		if err != nil {
			return fmt.Errorf("initial sync failed: %w", err)
		}
		printSyncReport(cmd, report)
	}

	changes, err := conn.Watch(ctx, watchSettle)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for namespace %s (Ctrl+C to stop)\n", args[0], namespace)

	for change := range changes {
		if err := applyChange(ctx, namespace, change); err != nil {
			logger.Error("%s: %v", change.DocumentID, err)
			continue
		}
		cmd.Printf("%s %s\n", change.Type, change.DocumentID)
	}
	return nil
}

// applyChange mirrors one filesystem change into the namespace. An upsert
// replaces the previous copy of the document.
func applyChange(ctx context.Context, namespace string, change filesystem.Change) error {
	switch change.Type {
	case filesystem.ChangeRemoved:
		if _, err := documentService.Delete(ctx, namespace, change.DocumentID); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		return nil

	case filesystem.ChangeUpserted:
		doc, err := extractor.Extract(ctx, *change.Document, namespace)
		if errors.Is(err, domain.ErrUnsupportedType) {
			logger.Debug("skipping %s: %v", change.DocumentID, err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("extract: %w", err)
		}
		if _, err := documentService.Delete(ctx, namespace, doc.SourceDocumentID); err != nil &&
			!errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete previous copy: %w", err)
		}
		if _, err := ingestService.Ingest(ctx, *doc); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown change type %q", domain.ErrInvalidInput, change.Type)
	}
}
