// Package cli provides the docchat command line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// skipWiring is a command annotation. Annotated commands only need the
// settings service, so they work before any provider is configured.
const skipWiring = "docchat/settings-only"

// Services shared by all commands. They are set by wire, or directly by tests.
var (
	configStore     driven.ConfigStore
	settingsService driving.SettingsService
	chatService     driving.ChatService
	ingestService   driving.IngestionService
	documentService driving.DocumentService
	reconciler      driving.Reconciler
	syncService     driving.SyncService
	extractor       driven.Extractor
	tenants         driven.TenantResolver
	defaultK        = 4
)

// Persistent flags.
var (
	verbose       bool
	namespaceFlag string
	channelFlag   string
	companyFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents",
	Long: `docchat ingests documents into per-tenant namespaces and answers
questions about them with retrieval augmented generation.

Texts, tables and images are summarised, the summaries are embedded, and
questions retrieve the original content for the model to answer from.

Configuration lives in ~/.docchat/config.toml; API keys may also come
from OPENAI_API_KEY and ANTHROPIC_API_KEY.`,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrap,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVarP(&namespaceFlag, "namespace", "n", "", "Tenant namespace (overrides --channel)")
	flags.StringVar(&channelFlag, "channel", "", "Channel ID used to resolve the namespace")
	flags.StringVar(&companyFlag, "company", "", "Company ID used to resolve the namespace")
}

// Execute runs the root command and releases every wired resource on return.
func Execute(ctx context.Context) error {
	defer shutdown()
	return rootCmd.ExecuteContext(ctx)
}

// bootstrap wires the services the command needs, unless they are already set.
func bootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Name() == "version" {
		return nil
	}

	settingsOnly := needsSettingsOnly(cmd)
	if settingsOnly && settingsService != nil {
		return nil
	}
	if !settingsOnly && chatService != nil {
		return nil
	}

	return wire(commandContext(cmd), settingsOnly)
}

// needsSettingsOnly reports whether cmd or one of its parents is annotated
// with skipWiring.
func needsSettingsOnly(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipWiring] == "true" {
			return true
		}
	}
	return false
}

// resolveNamespace returns --namespace when set, otherwise the namespace the
// tenant resolver maps --company and --channel to.
func resolveNamespace(ctx context.Context) (string, error) {
	if ns := strings.TrimSpace(namespaceFlag); ns != "" {
		return ns, nil
	}
	if tenants == nil {
		return "", fmt.Errorf("%w: no namespace given and no tenant resolver", domain.ErrConfiguration)
	}
	ns, err := tenants.Resolve(ctx, domain.TenantIdentity{
		CompanyID: companyFlag,
		ChannelID: channelFlag,
	})
	if err != nil {
		return "", fmt.Errorf("resolve namespace: %w", err)
	}
	return ns, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
