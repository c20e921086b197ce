package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List ingested documents, show their ingestion status, or delete them.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in a namespace",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentStatusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show the ingestion status of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentStatus,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long: `Removes every vector and content record of the document from the namespace,
then its ingestion status. Deleting a missing document is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentStatusCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := commandContext(cmd)
	namespace, err := resolveNamespace(ctx)
	if err != nil {
		return err
	}

	docs, err := documentService.List(ctx, namespace)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in namespace %s.\n", namespace)
		return nil
	}

	cmd.Printf("Documents in namespace %s:\n\n", namespace)
	for _, doc := range docs {
		name := doc.Name
		if name == "" {
			name = "(untitled)"
		}
		cmd.Printf("  %-12s %s\n", doc.Status, doc.DocumentID)
		cmd.Printf("               %s, %d records, updated %s\n",
			name, doc.ContentCount, doc.UpdatedAt.Format(time.DateTime))
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))

	return nil
}

func runDocumentStatus(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	status, err := documentService.Status(commandContext(cmd), docID)
	if err != nil {
		return fmt.Errorf("failed to get document status: %w", err)
	}

	cmd.Printf("Document: %s\n", status.DocumentID)
	cmd.Printf("  Namespace: %s\n", status.TenantIndexName)
	if status.Name != "" {
		cmd.Printf("  Name:      %s\n", status.Name)
	}
	if status.URL != "" {
		cmd.Printf("  URL:       %s\n", status.URL)
	}
	cmd.Printf("  Status:    %s\n", status.Status)
	cmd.Printf("  Records:   %d\n", status.ContentCount)
	cmd.Printf("  Updated:   %s\n", status.UpdatedAt.Format(time.RFC3339))
	if status.Error != "" {
		cmd.Printf("  Error:     %s\n", status.Error)
	}

	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := commandContext(cmd)
	namespace, err := resolveNamespace(ctx)
	if err != nil {
		return err
	}

	docID := args[0]
	result, err := documentService.Delete(ctx, namespace, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %s (%d vectors, %d records).\n", docID, result.VectorsDeleted, result.RecordsDeleted)
	return nil
}
