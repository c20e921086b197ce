package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is the OpenAI API or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic API. It has no embedding models.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AllLLMProviders returns the providers that can answer questions.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOpenAI, AIProviderAnthropic}
}

// StorageBackend selects where content records and vectors live.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite keeps everything in one local database file.
	StorageSQLite StorageBackend = "sqlite"

	// StoragePostgres uses a documents table and pgvector.
	StoragePostgres StorageBackend = "postgres"

	// StorageMemory keeps everything in process memory.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// AllStorageBackends returns every storage backend.
func AllStorageBackends() []StorageBackend {
	return []StorageBackend{StorageSQLite, StoragePostgres, StorageMemory}
}

// TenantBackend selects how tenant identities resolve to namespaces.
type TenantBackend string

// Available tenant backends.
const (
	// TenantStatic uses the channel ID verbatim as the namespace.
	TenantStatic TenantBackend = "static"

	// TenantMongo looks channels up in the registration database.
	TenantMongo TenantBackend = "mongo"
)

// IsValid returns true if the tenant backend is recognised.
func (b TenantBackend) IsValid() bool {
	return b == TenantStatic || b == TenantMongo
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider   AIProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider == AIProviderOpenAI && e.APIKey != "" && e.Model != ""
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	Provider  AIProvider
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && l.APIKey != "" && l.Model != ""
}

// StorageSettings holds content store and vector index configuration.
type StorageSettings struct {
	Backend     StorageBackend
	DataDir     string
	PostgresDSN string
}

// TenantSettings holds tenant resolution configuration.
type TenantSettings struct {
	Backend  TenantBackend
	MongoURI string
	Database string
}

// CacheSettings holds the optional embedding cache configuration.
// An empty RedisAddr disables the cache.
type CacheSettings struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTLHours      int
}

// RetrievalSettings holds query-time configuration.
type RetrievalSettings struct {
	TopK            int
	MaxContextChars int
	ImageMaxWidth   int
	ImageMaxHeight  int
}

// IngestionSettings holds write-path configuration.
type IngestionSettings struct {
	// SummariseTexts embeds a model summary of each text chunk instead of the chunk.
	SummariseTexts bool

	// SummaryConcurrency caps outstanding summary calls per modality.
	SummaryConcurrency int

	// SummaryRPS caps summary requests per second across modalities.
	SummaryRPS float64

	// Workers caps documents ingested in parallel by IngestMany.
	Workers int

	// ChunkSize and ChunkOverlap configure text chunking of fetched documents.
	ChunkSize    int
	ChunkOverlap int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Storage   StorageSettings
	Tenants   TenantSettings
	Cache     CacheSettings
	Retrieval RetrievalSettings
	Ingestion IngestionSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; they come from the config file or the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOpenAI,
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		LLM: LLMSettings{
			Provider:  AIProviderOpenAI,
			Model:     "gpt-4o",
			MaxTokens: 1024,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Tenants: TenantSettings{
			Backend:  TenantStatic,
			Database: "docchat",
		},
		Cache: CacheSettings{
			TTLHours: 24 * 7,
		},
		Retrieval: RetrievalSettings{
			TopK:            4,
			MaxContextChars: 24000,
			ImageMaxWidth:   1300,
			ImageMaxHeight:  600,
		},
		Ingestion: IngestionSettings{
			SummaryConcurrency: 1,
			SummaryRPS:         2,
			Workers:            2,
			ChunkSize:          1000,
			ChunkOverlap:       200,
		},
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:    "gpt-4o",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
