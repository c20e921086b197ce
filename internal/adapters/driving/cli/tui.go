package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui"
)

// runTUIApp runs the app. Tests replace it to avoid taking over the terminal.
var runTUIApp = func(app *tui.App) error {
	return app.Run()
}

// chatCmd represents the interactive chat command.
var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Chat with a namespace in the terminal UI",
	Long: `Launch the interactive terminal chat.

Each question is answered with the whole conversation so far as context,
and the sources behind every answer are listed under it. The documents
view lists and deletes ingested documents.

Controls:
  Enter    - Send question
  PgUp/Dn  - Scroll transcript
  Ctrl+L   - New conversation
  Esc      - Menu / Back
  ?        - Toggle help (menu)
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ctx := commandContext(cmd)
	namespace, err := resolveNamespace(ctx)
	if err != nil {
		return err
	}

	ports := &tui.Ports{
		Chat:      chatService,
		Documents: documentService,
		Namespace: namespace,
		K:         defaultK,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	if err := runTUIApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
