package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/api"
	"github.com/custodia-labs/docchat/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the chat, retrieval, ingestion and document endpoints over HTTP.

Requests name a namespace directly or a channel the tenant resolver maps
to one. The server shuts down gracefully on interrupt.

Examples:
  docchat serve
  docchat serve --addr 0.0.0.0:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if chatService == nil || documentService == nil {
		return errors.New("chat and document services not configured")
	}

	server, err := api.NewServer(&api.Ports{
		Chat:      chatService,
		Ingest:    ingestService,
		Documents: documentService,
		Reconcile: reconciler,
		Tenants:   tenants,
		DefaultK:  defaultK,
	}, logger.L())
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}

	cmd.Printf("docchat API listening on http://%s\n", serveAddr)
	return server.Run(commandContext(cmd), serveAddr)
}
