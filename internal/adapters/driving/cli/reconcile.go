package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Find and repair drift between vectors and content records",
	Long: `Vectors and content records are written to two stores without a shared
transaction. A crash between the writes leaves vectors whose content is missing
(dangling) or content no vector points at (orphaned).

reconcile lists both kinds for the namespace and deletes them, unless
--dry-run is set.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

var reconcileDryRun bool

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Report drift without repairing it")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if reconciler == nil {
		return errors.New("reconciler not configured")
	}

	ctx := commandContext(cmd)
	namespace, err := resolveNamespace(ctx)
	if err != nil {
		return err
	}

	report, err := reconciler.Reconcile(ctx, namespace, reconcileDryRun)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	if report.Clean() {
		cmd.Printf("Namespace %s is consistent.\n", report.Namespace)
		return nil
	}

	cmd.Printf("Namespace %s:\n", report.Namespace)
	cmd.Printf("  Dangling vectors: %d\n", len(report.DanglingVectors))
	for _, id := range report.DanglingVectors {
		cmd.Printf("    - %s\n", id)
	}
	cmd.Printf("  Orphaned records: %d\n", len(report.OrphanedRecords))
	for _, id := range report.OrphanedRecords {
		cmd.Printf("    - %s\n", id)
	}

	if report.Repaired {
		cmd.Println("Repaired.")
	} else {
		cmd.Println("Dry run; nothing was changed.")
	}
	return nil
}
