package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// pingTimeout bounds provider validation in the settings commands.
const pingTimeout = 10 * time.Second

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, storage, tenants and retrieval options.

Use subcommands to configure specific settings or run the interactive wizard.`,
	Annotations: map[string]string{skipWiring: "true"},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one setting",
	Long: `Write one value to config.toml. Numbers and booleans are stored typed.

Examples:
  docchat settings set storage.backend postgres
  docchat settings set retrieval.top_k 6
  docchat settings set ingestion.summarise_texts true`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Long:  `Configure the embedding model used to index and retrieve content.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the LLM provider",
	Long:  `Configure the LLM used to summarise content and answer questions.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	cmd.Printf("  API Key: %s\n", describeKey(settings.Embedding.APIKey))
	cmd.Printf("  Status: %s\n", configuredLabel(settings.Embedding.IsConfigured()))
	cmd.Println()

	// LLM settings
	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	cmd.Printf("  API Key: %s\n", describeKey(settings.LLM.APIKey))
	cmd.Printf("  Status: %s\n", configuredLabel(settings.LLM.IsConfigured()))
	cmd.Println()

	// Storage settings
	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	switch settings.Storage.Backend {
	case domain.StoragePostgres:
		cmd.Printf("  DSN: %s\n", describeKey(settings.Storage.PostgresDSN))
	case domain.StorageSQLite:
		dir := settings.Storage.DataDir
		if dir == "" {
			dir = "~/.docchat/data"
		}
		cmd.Printf("  Data dir: %s\n", dir)
	}
	cmd.Println()

	// Tenant settings
	cmd.Println("[Tenants]")
	cmd.Printf("  Backend: %s\n", settings.Tenants.Backend)
	if settings.Tenants.Backend == domain.TenantMongo {
		cmd.Printf("  Mongo URI: %s\n", describeKey(settings.Tenants.MongoURI))
		cmd.Printf("  Database: %s\n", settings.Tenants.Database)
	}
	cmd.Println()

	// Cache settings
	cmd.Println("[Cache]")
	if settings.Cache.RedisAddr != "" {
		cmd.Printf("  Redis: %s (db %d)\n", settings.Cache.RedisAddr, settings.Cache.RedisDB)
		cmd.Printf("  TTL: %dh\n", settings.Cache.TTLHours)
	} else {
		cmd.Println("  Redis: disabled")
	}
	cmd.Println()

	// Retrieval and ingestion
	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Max context chars: %d\n", settings.Retrieval.MaxContextChars)
	cmd.Printf("  Image bounds: %dx%d\n", settings.Retrieval.ImageMaxWidth, settings.Retrieval.ImageMaxHeight)
	cmd.Println()

	cmd.Println("[Ingestion]")
	cmd.Printf("  Summarise texts: %t\n", settings.Ingestion.SummariseTexts)
	cmd.Printf("  Summary concurrency: %d (%.1f req/s)\n",
		settings.Ingestion.SummaryConcurrency, settings.Ingestion.SummaryRPS)
	cmd.Printf("  Workers: %d\n", settings.Ingestion.Workers)
	cmd.Printf("  Chunks: %d chars, %d overlap\n", settings.Ingestion.ChunkSize, settings.Ingestion.ChunkOverlap)
	cmd.Println()

	// Validation
	if err := settingsService.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docchat settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], parseValue(args[1])
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s\n", key)
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("docchat Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)

	// Step 1: Embeddings are required for indexing and retrieval.
	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	// Step 2: The LLM answers questions and summarises tables and images.
	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	// Step 3: Storage backend.
	cmd.Println("Step 3: Select Storage Backend")
	cmd.Println("------------------------------")
	backends := domain.AllStorageBackends()
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b)
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(backends), 1)
	backend := backends[idx-1]
	if err := settingsService.Set("storage.backend", string(backend)); err != nil {
		return fmt.Errorf("failed to set storage backend: %w", err)
	}
	if backend == domain.StoragePostgres {
		cmd.Print("Enter Postgres DSN (blank to use DOCCHAT_POSTGRES_DSN): ")
		if dsn := readPassword(); dsn != "" {
			if err := settingsService.Set("storage.postgres_dsn", dsn); err != nil {
				return fmt.Errorf("failed to set postgres DSN: %w", err)
			}
		}
		cmd.Println()
	}
	cmd.Printf("Storage backend set to: %s\n\n", backend)

	// Final validation
	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settingsService.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureLLMProvider(cmd, reader)
}

// configureEmbeddingProvider prompts for the OpenAI embedding model and key.
// OpenAI is the only embedding provider.
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	defaults := domain.DefaultAppSettings()
	defaultModel := defaults.Embedding.Model
	cmd.Printf("Provider: %s\n", domain.AIProviderOpenAI.Description())
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	cmd.Print("Enter API key (blank to use OPENAI_API_KEY): ")
	apiKey := readPassword()
	cmd.Println()

	if err := settingsService.Set("embedding.provider", string(domain.AIProviderOpenAI)); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	if err := settingsService.Set("embedding.model", model); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	if apiKey != "" {
		if err := settingsService.Set("embedding.api_key", apiKey); err != nil {
			return fmt.Errorf("failed to configure embedding provider: %w", err)
		}
	}

	// Validate the configuration by pinging the service
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cmd.Print("Validating configuration... ")
	svc, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err == nil && svc == nil {
		err = domain.ErrEmbeddingUnavailable
	}
	if err == nil {
		defer svc.Close() //nolint:errcheck
		err = pingWithTimeout(cmd.Context(), svc.Ping)
	}
	if err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding model configured: %s\n\n", model)
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	cmd.Print("Enter API key (blank to use the environment): ")
	apiKey := readPassword()
	cmd.Println()

	if err := settingsService.Set("llm.provider", string(selectedProvider)); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}
	if err := settingsService.Set("llm.model", model); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}
	if apiKey != "" {
		if err := settingsService.Set("llm.api_key", apiKey); err != nil {
			return fmt.Errorf("failed to configure LLM provider: %w", err)
		}
	}

	// Validate the configuration by pinging the service
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cmd.Print("Validating configuration... ")
	svc, err := ai.CreateLLMService(&settings.LLM)
	if err == nil && svc == nil {
		err = domain.ErrLLMUnavailable
	}
	if err == nil {
		defer svc.Close() //nolint:errcheck
		err = pingWithTimeout(cmd.Context(), svc.Ping)
	}
	if err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

func pingWithTimeout(parent context.Context, ping func(context.Context) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, pingTimeout)
	defer cancel()
	return ping(ctx)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// parseValue types a command line value for the TOML config.
func parseValue(s string) any {
	if s == "true" || s == "false" {
		return s == "true"
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.Contains(s, ".") {
		return f
	}
	return s
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func describeKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
