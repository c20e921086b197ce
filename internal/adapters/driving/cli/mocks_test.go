package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/adapters/driven/tenant"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// mockChatService records the last call and returns canned results.
type mockChatService struct {
	answer  *domain.Answer
	records []domain.RetrievedRecord
	err     error

	gotNamespace    string
	gotConversation []domain.ConversationTurn
	gotQuery        string
	gotK            int
}

func (m *mockChatService) Ask(
	_ context.Context, namespace string, conversation []domain.ConversationTurn, k int,
) (*domain.Answer, error) {
	m.gotNamespace = namespace
	m.gotConversation = conversation
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Text: "Test answer", Sources: []string{"doc-1"}, Retrieved: 1}, nil
}

func (m *mockChatService) Retrieve(
	_ context.Context, namespace, query string, k int,
) ([]domain.RetrievedRecord, error) {
	m.gotNamespace = namespace
	m.gotQuery = query
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

// mockIngestService marks every document SUCCESS.
type mockIngestService struct {
	mu       sync.Mutex
	ingested []domain.ExtractedDocument
	err      error
}

func (m *mockIngestService) Ingest(_ context.Context, doc domain.ExtractedDocument) (*domain.DocumentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested = append(m.ingested, doc)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.DocumentStatus{
		DocumentID:      doc.SourceDocumentID,
		TenantIndexName: doc.TenantIndexName,
		Status:          domain.StatusSuccess,
		ContentCount:    doc.ElementCount(),
	}, nil
}

func (m *mockIngestService) IngestMany(
	ctx context.Context, docs []domain.ExtractedDocument,
) ([]domain.DocumentStatus, error) {
	statuses := make([]domain.DocumentStatus, 0, len(docs))
	for _, doc := range docs {
		st, err := m.Ingest(ctx, doc)
		if err != nil {
			statuses = append(statuses, domain.DocumentStatus{
				DocumentID: doc.SourceDocumentID, Status: domain.StatusFailure, Error: err.Error(),
			})
			continue
		}
		statuses = append(statuses, *st)
	}
	return statuses, m.err
}

// mockDocumentService serves a fixed set of statuses.
type mockDocumentService struct {
	docs    []domain.DocumentStatus
	deleted []string
	err     error
}

func (m *mockDocumentService) Status(_ context.Context, documentID string) (*domain.DocumentStatus, error) {
	for _, d := range m.docs {
		if d.DocumentID == documentID {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("get status: %w", domain.ErrNotFound)
}

func (m *mockDocumentService) List(_ context.Context, namespace string) ([]domain.DocumentStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.DocumentStatus
	for _, d := range m.docs {
		if d.TenantIndexName == namespace {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDocumentService) Delete(_ context.Context, namespace, documentID string) (*driving.DeleteResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.deleted = append(m.deleted, namespace+"/"+documentID)
	return &driving.DeleteResult{VectorsDeleted: 3, RecordsDeleted: 3}, nil
}

// mockReconciler returns report for any namespace.
type mockReconciler struct {
	report    *driving.ReconcileReport
	gotDryRun bool
}

func (m *mockReconciler) Reconcile(_ context.Context, namespace string, dryRun bool) (*driving.ReconcileReport, error) {
	m.gotDryRun = dryRun
	if m.report == nil {
		return &driving.ReconcileReport{Namespace: namespace}, nil
	}
	r := *m.report
	r.Namespace = namespace
	r.Repaired = !dryRun && !r.Clean()
	return &r, nil
}

// mockSyncService records the connector it was handed.
type mockSyncService struct {
	gotConnector string
	gotNamespace string
	gotForce     bool
	report       *driving.SyncReport
	err          error
}

func (m *mockSyncService) Sync(
	_ context.Context, connector driven.Connector, namespace string, opts driving.SyncOptions,
) (*driving.SyncReport, error) {
	m.gotConnector = connector.Type()
	m.gotNamespace = namespace
	m.gotForce = opts.Force
	if m.report == nil {
		return &driving.SyncReport{}, m.err
	}
	return m.report, m.err
}

// mockExtractor turns text files into a single text element.
type mockExtractor struct{}

func (mockExtractor) Extract(
	_ context.Context, raw domain.RawDocument, namespace string,
) (*domain.ExtractedDocument, error) {
	if !strings.HasPrefix(raw.MIMEType, "text/") {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.MIMEType)
	}
	return &domain.ExtractedDocument{
		SourceDocumentID: raw.ID,
		TenantIndexName:  namespace,
		Name:             raw.Name,
		URL:              raw.URI,
		Texts:            []string{string(raw.Content)},
	}, nil
}

// mockSettingsService keeps values in memory.
type mockSettingsService struct {
	values   map[string]any
	settings domain.AppSettings
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultAppSettings()
	s.Embedding.APIKey = "sk-test-1234567890"
	return &mockSettingsService{values: map[string]any{}, settings: s}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Validate(settings *domain.AppSettings) error {
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding not configured", domain.ErrConfiguration)
	}
	return nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	chat      *mockChatService
	ingest    *mockIngestService
	documents *mockDocumentService
	reconcile *mockReconciler
	sync      *mockSyncService
	settings  *mockSettingsService
}

// setupTestServices installs mocks for every service and returns a
// function restoring the previous services and flag values.
func setupTestServices() func() {
	_, cleanup := setupTestServicesWithMocks()
	return cleanup
}

func setupTestServicesWithMocks() (*testServices, func()) {
	oldChat, oldIngest, oldDocs := chatService, ingestService, documentService
	oldReconciler, oldSync, oldExtractor := reconciler, syncService, extractor
	oldSettings, oldTenants, oldK := settingsService, tenants, defaultK

	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := &testServices{
		chat:   &mockChatService{},
		ingest: &mockIngestService{},
		documents: &mockDocumentService{docs: []domain.DocumentStatus{
			{
				DocumentID: "doc-1", TenantIndexName: "acme", Name: "Handbook",
				Status: domain.StatusSuccess, ContentCount: 12, UpdatedAt: updated,
			},
			{
				DocumentID: "doc-2", TenantIndexName: "acme", Name: "Pricing",
				Status: domain.StatusFailure, Error: "llm timeout", UpdatedAt: updated,
			},
			{
				DocumentID: "doc-3", TenantIndexName: "other", Status: domain.StatusSuccess, UpdatedAt: updated,
			},
		}},
		reconcile: &mockReconciler{},
		sync:      &mockSyncService{},
		settings:  newMockSettingsService(),
	}

	chatService = ts.chat
	ingestService = ts.ingest
	documentService = ts.documents
	reconciler = ts.reconcile
	syncService = ts.sync
	extractor = mockExtractor{}
	settingsService = ts.settings
	tenants = tenant.NewStatic(DefaultNamespace)
	defaultK = 4

	return ts, func() {
		chatService, ingestService, documentService = oldChat, oldIngest, oldDocs
		reconciler, syncService, extractor = oldReconciler, oldSync, oldExtractor
		settingsService, tenants, defaultK = oldSettings, oldTenants, oldK
		resetFlags()
	}
}

// resetFlags clears flag variables, which cobra keeps between executions.
func resetFlags() {
	namespaceFlag, channelFlag, companyFlag = "", "", ""
	verbose = false
	askK, askRetrieveOnly = 0, false
	ingestForce = false
	syncForce, syncFolders = false, nil
	reconcileDryRun = false
	watchInitial = false
	mcpPort = 0
}
