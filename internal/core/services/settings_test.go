package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driven/config"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

func newTestSettings(values map[string]any, env map[string]string) *SettingsService {
	s := NewSettingsService(config.NewValues(values))
	s.getenv = func(key string) string { return env[key] }
	return s
}

func TestSettingsService_GetDefaults(t *testing.T) {
	settings, err := newTestSettings(nil, nil).Get()
	require.NoError(t, err)

	d := domain.DefaultAppSettings()
	assert.Equal(t, d.Embedding, settings.Embedding)
	assert.Equal(t, d.LLM, settings.LLM)
	assert.Equal(t, d.Retrieval, settings.Retrieval)
	assert.Equal(t, d.Ingestion, settings.Ingestion)
	assert.Equal(t, domain.StorageSQLite, settings.Storage.Backend)
	assert.Equal(t, domain.TenantStatic, settings.Tenants.Backend)
}

func TestSettingsService_GetFromConfig(t *testing.T) {
	settings, err := newTestSettings(map[string]any{
		"embedding.model":               "text-embedding-3-large",
		"llm.provider":                  "anthropic",
		"retrieval.top_k":               int64(8),
		"retrieval.max_context_chars":   int64(5000),
		"ingestion.summarise_texts":     true,
		"ingestion.summary_rps":         0.5,
		"storage.backend":               "postgres",
		"storage.postgres_dsn":          "postgres://localhost/docchat",
		"tenants.backend":               "mongo",
		"tenants.mongo_uri":             "mongodb://localhost",
		"cache.redis_addr":              "localhost:6379",
		"ingestion.summary_concurrency": int64(3),
	}, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, 3072, settings.Embedding.Dimensions, "dimensions follow the model")
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model, "model default follows the provider")
	assert.Equal(t, 8, settings.Retrieval.TopK)
	assert.Equal(t, 5000, settings.Retrieval.MaxContextChars)
	assert.True(t, settings.Ingestion.SummariseTexts)
	assert.InDelta(t, 0.5, settings.Ingestion.SummaryRPS, 1e-9)
	assert.Equal(t, 3, settings.Ingestion.SummaryConcurrency)
	assert.Equal(t, domain.StoragePostgres, settings.Storage.Backend)
	assert.Equal(t, domain.TenantMongo, settings.Tenants.Backend)
	assert.Equal(t, "localhost:6379", settings.Cache.RedisAddr)
}

func TestSettingsService_InvalidProviderFallsBack(t *testing.T) {
	settings, err := newTestSettings(map[string]any{"llm.provider": "nope"}, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.LLM.Provider)
}

func TestSettingsService_EnvironmentOverrides(t *testing.T) {
	settings, err := newTestSettings(
		map[string]any{
			"llm.provider":         "anthropic",
			"storage.postgres_dsn": "from-config",
			"embedding.api_key":    "config-key",
		},
		map[string]string{
			EnvOpenAIKey:    "sk-openai",
			EnvAnthropicKey: "sk-ant",
			EnvPostgresDSN:  "from-env",
			EnvMongoURI:     "mongodb://env",
			EnvRedisAddr:    "redis:6379",
		},
	).Get()
	require.NoError(t, err)

	assert.Equal(t, "sk-openai", settings.Embedding.APIKey)
	assert.Equal(t, "sk-ant", settings.LLM.APIKey)
	assert.Equal(t, "from-env", settings.Storage.PostgresDSN)
	assert.Equal(t, "mongodb://env", settings.Tenants.MongoURI)
	assert.Equal(t, "redis:6379", settings.Cache.RedisAddr)
}

func TestSettingsService_Set(t *testing.T) {
	s := newTestSettings(nil, nil)
	require.NoError(t, s.Set("retrieval.top_k", 6))

	settings, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, 6, settings.Retrieval.TopK)
}

func TestSettingsService_Validate(t *testing.T) {
	s := newTestSettings(nil, map[string]string{EnvOpenAIKey: "sk"})
	settings, err := s.Get()
	require.NoError(t, err)
	require.NoError(t, s.Validate(settings))

	settings.Storage.Backend = domain.StoragePostgres
	settings.Tenants.Backend = domain.TenantMongo
	settings.Retrieval.TopK = 0
	settings.Ingestion.ChunkOverlap = settings.Ingestion.ChunkSize

	err = s.Validate(settings)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "postgres backend needs")
	assert.Contains(t, err.Error(), "mongo backend needs")
	assert.Contains(t, err.Error(), "top_k must be positive")
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestSettingsService_ValidateMissingKey(t *testing.T) {
	s := newTestSettings(nil, nil)
	settings, err := s.Get()
	require.NoError(t, err)

	err = s.Validate(settings)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "embedding")
}
