package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested documents",
	Long: `Retrieves the content most relevant to the question from the namespace
and asks the LLM to answer from it. The sources used are listed after the answer.

Examples:
  docchat ask -n acme "What was revenue in Q3?"
  docchat ask --channel C042 "Summarise the onboarding guide"
  docchat ask -n acme --retrieve-only "pricing table"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var (
	askK            int
	askRetrieveOnly bool
)

func init() {
	askCmd.Flags().IntVarP(&askK, "k", "k", 0, "Number of records to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askRetrieveOnly, "retrieve-only", false, "Print the retrieved records without asking the LLM")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	ctx := commandContext(cmd)
	namespace, err := resolveNamespace(ctx)
	if err != nil {
		return err
	}

	k := askK
	if k <= 0 {
		k = defaultK
	}

	if askRetrieveOnly {
		records, err := chatService.Retrieve(ctx, namespace, question, k)
		if err != nil {
			return fmt.Errorf("retrieve failed: %w", err)
		}
		if len(records) == 0 {
			cmd.Println("No matching content.")
			return nil
		}
		for _, r := range records {
			printRecord(cmd, r)
		}
		return nil
	}

	conversation := []domain.ConversationTurn{{Role: domain.RoleUser, Content: question}}
	answer, err := chatService.Ask(ctx, namespace, conversation, k)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			cmd.Printf("  - %s\n", src)
		}
	}
	return nil
}

// printRecord prints one retrieved record with a short content preview.
func printRecord(cmd *cobra.Command, r domain.RetrievedRecord) {
	meta := r.Record.Metadata
	cmd.Printf("%d. [%s] %s (score %.3f)\n", r.Rank+1, meta.Modality, meta.SourceDocumentID, r.Score)
	if meta.PageNumber != nil {
		cmd.Printf("   page %d\n", *meta.PageNumber)
	}
	if meta.Modality == domain.ModalityImage {
		cmd.Println("   (image)")
		return
	}
	cmd.Printf("   %s\n", preview(r.Record.Raw, 160))
}

// preview renders raw record content on one line, truncated to limit runes.
func preview(raw any, limit int) string {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case domain.Table:
		s = fmt.Sprintf("table %d cols x %d rows: %s", len(v.Columns), len(v.Rows), strings.Join(v.Columns, ", "))
	default:
		s = fmt.Sprintf("%v", v)
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return s
}
