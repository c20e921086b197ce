package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/connectors/filesystem"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest files into a namespace",
	Long: `Extracts, summarises and indexes the given files.

Plain text, markdown, HTML, CSV, docx, pptx and images are supported.
Files ending in .bundle.json carry pre-extracted texts, tables and images
and keep the document ID they declare.

A document already ingested successfully is skipped unless --force is set,
which deletes it first. Use 'docchat sync' for whole directories.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var ingestForce bool

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "Re-ingest documents that already succeeded")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil || extractor == nil {
		return errors.New("ingestion service not configured")
	}

	ctx := commandContext(cmd)
	namespace, err := resolveNamespace(ctx)
	if err != nil {
		return err
	}

	// 1. Read and extract every file up front so bad input fails fast.
	docs := make([]domain.ExtractedDocument, 0, len(args))
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory; use 'docchat sync %s'", domain.ErrInvalidInput, path, path)
		}

		conn := filesystem.New(filepath.Dir(path))
		raw, err := conn.Read(path)
		conn.Close() //nolint:errcheck
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		doc, err := extractor.Extract(ctx, *raw, namespace)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		docs = append(docs, *doc)
	}

	// 2. Forced re-ingestion removes the previous copy first.
	if ingestForce && documentService != nil {
		for _, doc := range docs {
			if _, err := documentService.Delete(ctx, namespace, doc.SourceDocumentID); err != nil &&
				!errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("delete %s: %w", doc.SourceDocumentID, err)
			}
		}
	}

	// 3. Ingest.
	statuses, err := ingestService.IngestMany(ctx, docs)
	printStatuses(cmd, statuses)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

// printStatuses prints one line per document status.
func printStatuses(cmd *cobra.Command, statuses []domain.DocumentStatus) {
	for _, st := range statuses {
		switch st.Status {
		case domain.StatusSuccess:
			cmd.Printf("%-8s %s (%d records)\n", st.Status, st.DocumentID, st.ContentCount)
		case domain.StatusFailure:
			cmd.Printf("%-8s %s: %s\n", st.Status, st.DocumentID, st.Error)
		default:
			cmd.Printf("%-8s %s\n", st.Status, st.DocumentID)
		}
	}
}
