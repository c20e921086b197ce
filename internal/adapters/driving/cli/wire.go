package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/docchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docchat/internal/adapters/driven/imaging"
	"github.com/custodia-labs/docchat/internal/adapters/driven/render"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/mongo"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docchat/internal/adapters/driven/tenant"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/services"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/normalisers/bundle"
	"github.com/custodia-labs/docchat/internal/normalisers/csv"
	"github.com/custodia-labs/docchat/internal/normalisers/docx"
	"github.com/custodia-labs/docchat/internal/normalisers/html"
	"github.com/custodia-labs/docchat/internal/normalisers/image"
	"github.com/custodia-labs/docchat/internal/normalisers/markdown"
	"github.com/custodia-labs/docchat/internal/normalisers/plaintext"
	"github.com/custodia-labs/docchat/internal/normalisers/pptx"
	"github.com/custodia-labs/docchat/internal/postprocessors"
)

// DefaultNamespace is used by the static tenant resolver when a command
// names neither a namespace nor a channel.
const DefaultNamespace = "default"

// configDir is the directory holding config.toml and prompts/.
// Empty selects ~/.docchat.
var configDir string

// closers release wired resources in reverse order.
var closers []func()

// shutdown runs the closers and flushes the logger.
func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
	logger.Sync()
}

// storage groups the three persistence ports of one backend.
type storage struct {
	content  driven.ContentStore
	index    driven.VectorIndex
	statuses driven.StatusStore
}

// wire builds the service graph from settings. With settingsOnly it stops
// after the settings service.
func wire(ctx context.Context, settingsOnly bool) error {
	// 1. Settings.
	dir := configDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return err
		}
		dir = d
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	configStore = store
	settingsService = services.NewSettingsService(store)
	if settingsOnly {
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := settingsService.Validate(settings); err != nil {
		return fmt.Errorf("%w\nRun 'docchat settings show' to review the configuration", err)
	}

	// 2. Storage.
	st, err := openStorage(ctx, settings)
	if err != nil {
		return err
	}

	// 3. Tenants. The mongo backend also keeps the ingestion statuses.
	switch settings.Tenants.Backend {
	case domain.TenantMongo:
		ms, err := mongo.NewStore(ctx, settings.Tenants.MongoURI, settings.Tenants.Database,
			mongo.WithLogger(logger.L()))
		if err != nil {
			return fmt.Errorf("open tenant registry: %w", err)
		}
		closers = append(closers, func() { ms.Close() }) //nolint:errcheck
		tenants = ms.TenantResolver()
		st.statuses = ms.StatusStore()
	default:
		tenants = tenant.NewStatic(DefaultNamespace)
	}

	// 4. AI services.
	aiResult, err := ai.Init(ctx, settings, logger.L())
	if err != nil {
		return err
	}
	closers = append(closers, aiResult.Close)
	for _, w := range aiResult.Warnings {
		logger.Warn("%s", w)
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}

	// 5. Core services.
	images := imaging.New(settings.Retrieval.ImageMaxWidth, settings.Retrieval.ImageMaxHeight)
	tables := render.NewTableRenderer(render.StyleMarkdown)

	summary := services.NewSummaryIndex(st.index, aiResult.EmbeddingService)
	indexer := services.NewIndexer(st.content, summary)
	retriever := services.NewRetriever(summary, st.content)

	assembler := services.NewAssembler(images, tables)
	assembler.SetPromptStore(prompts)
	assembler.SetMaxContextChars(settings.Retrieval.MaxContextChars)

	chat := services.NewChatService(retriever, assembler, aiResult.LLMService)
	chat.SetChatOptions(driven.ChatOptions{MaxTokens: settings.LLM.MaxTokens})

	documents := services.NewDocumentService(st.content, st.index, st.statuses)

	summariser := services.NewSummariser(aiResult.LLMService, tables, images, services.SummaryOptions{
		SummariseTexts:    settings.Ingestion.SummariseTexts,
		Concurrency:       settings.Ingestion.SummaryConcurrency,
		RequestsPerSecond: settings.Ingestion.SummaryRPS,
	})
	summariser.SetPromptStore(prompts)

	ingest := services.NewIngestionService(st.statuses, summariser, indexer, documents)
	ingest.SetWorkers(settings.Ingestion.Workers)

	// 6. Extraction.
	chunker, err := postprocessors.NewDefaultRegistry().Build(postprocessors.DefaultChunker, map[string]any{
		"chunk_size": settings.Ingestion.ChunkSize,
		"overlap":    settings.Ingestion.ChunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("build chunker: %w", err)
	}
	extraction := services.NewExtractionService(chunker,
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		pptx.New(),
		csv.New(csv.DefaultMaxRows),
		image.New(),
		bundle.New(),
	)

	chatService = chat
	documentService = documents
	ingestService = ingest
	reconciler = services.NewReconciler(st.content, st.index)
	extractor = extraction
	syncService = services.NewSyncService(extraction, ingest, documents)
	defaultK = settings.Retrieval.TopK

	logger.Debug("wired storage=%s tenants=%s llm=%t",
		settings.Storage.Backend, settings.Tenants.Backend, aiResult.LLMService != nil)
	return nil
}

// openStorage opens the configured content store and vector index.
func openStorage(ctx context.Context, settings *domain.AppSettings) (*storage, error) {
	switch settings.Storage.Backend {
	case domain.StoragePostgres:
		pg, err := postgres.NewStore(ctx, settings.Storage.PostgresDSN, postgres.WithLogger(logger.L()))
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, func() { pg.Close() }) //nolint:errcheck
		return &storage{content: pg.ContentStore(), index: pg.VectorIndex(), statuses: pg.StatusStore()}, nil

	case domain.StorageMemory:
		logger.Warn("memory storage selected; ingested documents are lost on exit")
		return &storage{
			content:  memory.NewContentStore(),
			index:    memory.NewVectorIndex(),
			statuses: memory.NewStatusStore(),
		}, nil

	default:
		db, err := sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		closers = append(closers, func() { db.Close() }) //nolint:errcheck
		logger.Debug("sqlite store at %s", db.Path())
		return &storage{content: db.ContentStore(), index: db.VectorIndex(), statuses: db.StatusStore()}, nil
	}
}
