package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// jpegBase64 is a base64 string whose decoded bytes carry a JPEG signature.
var jpegBase64 = base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})

// ==================== Embedding ====================

// mapEmbedder returns scripted vectors per text and a fallback otherwise.
type mapEmbedder struct {
	mu       sync.Mutex
	dims     int
	vectors  map[string][]float32
	fallback []float32
	err      error
	queries  []string
}

func newMapEmbedder(dims int) *mapEmbedder {
	fallback := make([]float32, dims)
	fallback[dims-1] = 1
	return &mapEmbedder{dims: dims, vectors: make(map[string][]float32), fallback: fallback}
}

func (m *mapEmbedder) set(text string, v ...float32) { m.vectors[text] = v }

func (m *mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, text)
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mapEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mapEmbedder) Dimensions() int            { return m.dims }
func (m *mapEmbedder) ModelName() string          { return "map-embedder" }
func (m *mapEmbedder) Ping(context.Context) error { return nil }
func (m *mapEmbedder) Close() error               { return nil }

func (m *mapEmbedder) lastQuery() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queries) == 0 {
		return ""
	}
	return m.queries[len(m.queries)-1]
}

// ==================== LLM ====================

type mockLLM struct {
	mu        sync.Mutex
	summaries map[string]string
	answer    string
	err       error
	payloads  []domain.PromptPayload

	inFlight    int
	maxInFlight int
}

func newMockLLM() *mockLLM {
	return &mockLLM{summaries: make(map[string]string), answer: "the answer"}
}

func (m *mockLLM) Answer(_ context.Context, payload domain.PromptPayload, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) Summarise(_ context.Context, _ string, content string) (string, error) {
	m.enter()
	defer m.exit()
	if m.err != nil {
		return "", m.err
	}
	if s, ok := m.summaries[content]; ok {
		return s, nil
	}
	return "summary of " + content, nil
}

func (m *mockLLM) DescribeImage(_ context.Context, _ string, img domain.InlineImage) (string, error) {
	m.enter()
	defer m.exit()
	if m.err != nil {
		return "", m.err
	}
	if s, ok := m.summaries[img.Data]; ok {
		return s, nil
	}
	return "an image", nil
}

func (m *mockLLM) enter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
}

func (m *mockLLM) exit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// ==================== Rendering ====================

type mockNormaliser struct{}

func (mockNormaliser) Normalise(img domain.ImageContent) (domain.InlineImage, error) {
	if strings.HasPrefix(img.Data, "R0lG") {
		return domain.InlineImage{}, errors.New("gif not allowed in tests")
	}
	return domain.InlineImage{MIMEType: "image/jpeg", Data: "norm:" + img.Data[:8]}, nil
}

type pipeRenderer struct{}

func (pipeRenderer) Render(t domain.Table) string {
	lines := []string{strings.Join(t.Columns, " | ")}
	for _, r := range t.Rows {
		lines = append(lines, strings.Join(r, " | "))
	}
	return strings.Join(lines, "\n")
}

type staticPrompts map[string]string

func (p staticPrompts) Load(name string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", domain.ErrNotFound
}

// ==================== Failing stores ====================

type failingContentStore struct {
	*memory.ContentStore
	putErr error
	getErr error
}

func (f *failingContentStore) PutMany(ctx context.Context, records []domain.ContentRecord) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.ContentStore.PutMany(ctx, records)
}

func (f *failingContentStore) GetMany(ctx context.Context, ids []string) (map[string]domain.ContentRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.ContentStore.GetMany(ctx, ids)
}

type failingVectorIndex struct {
	*memory.VectorIndex
	upsertErr error
	matches   []domain.VectorMatch
}

func (f *failingVectorIndex) Upsert(ctx context.Context, ns string, entries []domain.VectorEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.VectorIndex.Upsert(ctx, ns, entries)
}

func (f *failingVectorIndex) Search(ctx context.Context, ns string, q []float32, k int) ([]domain.VectorMatch, error) {
	if f.matches != nil {
		return f.matches, nil
	}
	return f.VectorIndex.Search(ctx, ns, q, k)
}

// ==================== Fixture ====================

// pipeline wires the services over in-memory stores.
type pipeline struct {
	store     *memory.ContentStore
	index     *memory.VectorIndex
	statuses  *memory.StatusStore
	embedder  *mapEmbedder
	llm       *mockLLM
	summary   *SummaryIndex
	indexer   *Indexer
	retriever *Retriever
	assembler *Assembler
	documents *DocumentService
	ingest    *IngestionService
	chat      *ChatService
}

func newPipeline() *pipeline {
	p := &pipeline{
		store:    memory.NewContentStore(),
		index:    memory.NewVectorIndex(),
		statuses: memory.NewStatusStore(),
		embedder: newMapEmbedder(3),
		llm:      newMockLLM(),
	}
	p.summary = NewSummaryIndex(p.index, p.embedder)
	p.indexer = NewIndexer(p.store, p.summary)
	p.retriever = NewRetriever(p.summary, p.store)
	p.assembler = NewAssembler(mockNormaliser{}, pipeRenderer{})
	p.documents = NewDocumentService(p.store, p.index, p.statuses)
	summariser := NewSummariser(p.llm, pipeRenderer{}, mockNormaliser{}, SummaryOptions{})
	p.ingest = NewIngestionService(p.statuses, summariser, p.indexer, p.documents)
	p.chat = NewChatService(p.retriever, p.assembler, p.llm)
	return p
}

// q3Table is the table of the revenue scenario.
var q3Table = domain.Table{
	Columns: []string{"quarter", "revenue"},
	Rows:    [][]string{{"Q2", "1.1M"}, {"Q3", "1.4M"}},
}

// scenarioDocument has 2 text chunks, 1 table and 1 image. Its embeddings
// rank the table first for the Q3 revenue question, then the two texts.
func (p *pipeline) scenarioDocument() domain.ExtractedDocument {
	p.embedder.set("what is the Q3 revenue?", 1, 0, 0)
	p.llm.summaries[pipeRenderer{}.Render(q3Table)] = "quarterly revenue table"
	p.embedder.set("quarterly revenue table", 1, 0, 0)
	p.embedder.set("Revenue grew in Q3.", 0.9, 0.1, 0)
	p.embedder.set("Costs were flat.", 0.5, 0.5, 0)
	p.llm.summaries["norm:"+jpegBase64[:8]] = "office photo"
	p.embedder.set("office photo", 0, 0, 1)

	return domain.ExtractedDocument{
		SourceDocumentID: "doc-1",
		TenantIndexName:  "chan-42",
		Name:             "q3-report.pdf",
		Texts:            []string{"Revenue grew in Q3.", "Costs were flat."},
		Tables:           []domain.Table{q3Table},
		Images:           []string{jpegBase64},
	}
}
