package services

import (
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedDims          = "embedding.dimensions"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyLLMMaxTokens       = "llm.max_tokens"
	keyStorageBackend     = "storage.backend"
	keyStorageDataDir     = "storage.data_dir"
	keyStoragePostgresDSN = "storage.postgres_dsn"
	keyTenantsBackend     = "tenants.backend"
	keyTenantsMongoURI    = "tenants.mongo_uri"
	keyTenantsDatabase    = "tenants.database"
	keyCacheRedisAddr     = "cache.redis_addr"
	keyCacheRedisPassword = "cache.redis_password"
	keyCacheRedisDB       = "cache.redis_db"
	keyCacheTTLHours      = "cache.ttl_hours"
	keyRetrievalTopK      = "retrieval.top_k"
	keyRetrievalMaxChars  = "retrieval.max_context_chars"
	keyImageMaxWidth      = "retrieval.image_max_width"
	keyImageMaxHeight     = "retrieval.image_max_height"
	keySummariseTexts     = "ingestion.summarise_texts"
	keySummaryConcurrency = "ingestion.summary_concurrency"
	keySummaryRPS         = "ingestion.summary_rps"
	keyIngestWorkers      = "ingestion.workers"
	keyChunkSize          = "ingestion.chunk_size"
	keyChunkOverlap       = "ingestion.chunk_overlap"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvPostgresDSN  = "DOCCHAT_POSTGRES_DSN"
	EnvMongoURI     = "DOCCHAT_MONGO_URI"
	EnvRedisAddr    = "DOCCHAT_REDIS_ADDR"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDims),
		},
		LLM: domain.LLMSettings{
			Provider:  s.getProvider(keyLLMProvider, d.LLM.Provider),
			BaseURL:   s.configStore.GetString(keyLLMBaseURL),
			APIKey:    s.configStore.GetString(keyLLMAPIKey),
			MaxTokens: s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
		},
		Storage: domain.StorageSettings{
			Backend:     domain.StorageBackend(s.getString(keyStorageBackend, string(d.Storage.Backend))),
			DataDir:     s.configStore.GetString(keyStorageDataDir),
			PostgresDSN: s.configStore.GetString(keyStoragePostgresDSN),
		},
		Tenants: domain.TenantSettings{
			Backend:  domain.TenantBackend(s.getString(keyTenantsBackend, string(d.Tenants.Backend))),
			MongoURI: s.configStore.GetString(keyTenantsMongoURI),
			Database: s.getString(keyTenantsDatabase, d.Tenants.Database),
		},
		Cache: domain.CacheSettings{
			RedisAddr:     s.configStore.GetString(keyCacheRedisAddr),
			RedisPassword: s.configStore.GetString(keyCacheRedisPassword),
			RedisDB:       s.configStore.GetInt(keyCacheRedisDB),
			TTLHours:      s.getInt(keyCacheTTLHours, d.Cache.TTLHours),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:            s.getInt(keyRetrievalTopK, d.Retrieval.TopK),
			MaxContextChars: s.getInt(keyRetrievalMaxChars, d.Retrieval.MaxContextChars),
			ImageMaxWidth:   s.getInt(keyImageMaxWidth, d.Retrieval.ImageMaxWidth),
			ImageMaxHeight:  s.getInt(keyImageMaxHeight, d.Retrieval.ImageMaxHeight),
		},
		Ingestion: domain.IngestionSettings{
			SummariseTexts:     s.getBool(keySummariseTexts, d.Ingestion.SummariseTexts),
			SummaryConcurrency: s.getInt(keySummaryConcurrency, d.Ingestion.SummaryConcurrency),
			SummaryRPS:         s.getFloat(keySummaryRPS, d.Ingestion.SummaryRPS),
			Workers:            s.getInt(keyIngestWorkers, d.Ingestion.Workers),
			ChunkSize:          s.getInt(keyChunkSize, d.Ingestion.ChunkSize),
			ChunkOverlap:       s.getInt(keyChunkOverlap, d.Ingestion.ChunkOverlap),
		},
	}

	// The LLM model default depends on the provider.
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	// Dimensions default from the model table.
	if settings.Embedding.Dimensions == 0 {
		settings.Embedding.Dimensions = domain.EmbeddingDimensions()[settings.Embedding.Model]
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv fills secrets and endpoints from the environment. Environment
// values win over the config file.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if key := s.getenv(EnvOpenAIKey); key != "" {
		if settings.Embedding.Provider == domain.AIProviderOpenAI {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI {
			settings.LLM.APIKey = key
		}
	}
	if key := s.getenv(EnvAnthropicKey); key != "" && settings.LLM.Provider == domain.AIProviderAnthropic {
		settings.LLM.APIKey = key
	}
	if dsn := s.getenv(EnvPostgresDSN); dsn != "" {
		settings.Storage.PostgresDSN = dsn
	}
	if uri := s.getenv(EnvMongoURI); uri != "" {
		settings.Tenants.MongoURI = uri
	}
	if addr := s.getenv(EnvRedisAddr); addr != "" {
		settings.Cache.RedisAddr = addr
	}
}

// Set stores one configuration value.
func (s *SettingsService) Set(key string, value any) error {
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Validate checks that settings are internally consistent.
// All problems are reported together.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	var errs []error

	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("embedding: provider %q needs a model and API key", settings.Embedding.Provider))
	}
	if settings.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding: unknown dimensions for model %q", settings.Embedding.Model))
	}
	if !settings.Storage.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("storage: unknown backend %q", settings.Storage.Backend))
	}
	if settings.Storage.Backend == domain.StoragePostgres && settings.Storage.PostgresDSN == "" {
		errs = append(errs, fmt.Errorf("storage: postgres backend needs %s or %s", keyStoragePostgresDSN, EnvPostgresDSN))
	}
	if !settings.Tenants.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("tenants: unknown backend %q", settings.Tenants.Backend))
	}
	if settings.Tenants.Backend == domain.TenantMongo && settings.Tenants.MongoURI == "" {
		errs = append(errs, fmt.Errorf("tenants: mongo backend needs %s or %s", keyTenantsMongoURI, EnvMongoURI))
	}
	if settings.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval: top_k must be positive"))
	}
	if settings.Ingestion.ChunkOverlap >= settings.Ingestion.ChunkSize {
		errs = append(errs, fmt.Errorf("ingestion: chunk_overlap must be smaller than chunk_size"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
