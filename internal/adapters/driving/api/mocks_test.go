package api

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

type mockChat struct {
	lastNamespace    string
	lastConversation []domain.ConversationTurn
	lastK            int
	answer           *domain.Answer
	records          []domain.RetrievedRecord
	err              error
}

func (m *mockChat) Ask(_ context.Context, ns string, conv []domain.ConversationTurn, k int) (*domain.Answer, error) {
	m.lastNamespace, m.lastConversation, m.lastK = ns, conv, k
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockChat) Retrieve(_ context.Context, ns, _ string, k int) ([]domain.RetrievedRecord, error) {
	m.lastNamespace, m.lastK = ns, k
	return m.records, m.err
}

type mockIngest struct {
	last   domain.ExtractedDocument
	status *domain.DocumentStatus
	err    error
}

func (m *mockIngest) Ingest(_ context.Context, doc domain.ExtractedDocument) (*domain.DocumentStatus, error) {
	m.last = doc
	return m.status, m.err
}

func (m *mockIngest) IngestMany(_ context.Context, docs []domain.ExtractedDocument) ([]domain.DocumentStatus, error) {
	return make([]domain.DocumentStatus, len(docs)), nil
}

type mockDocuments struct {
	statuses map[string]domain.DocumentStatus
	deleted  []string
}

func (m *mockDocuments) Status(_ context.Context, id string) (*domain.DocumentStatus, error) {
	s, ok := m.statuses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *mockDocuments) List(_ context.Context, ns string) ([]domain.DocumentStatus, error) {
	var out []domain.DocumentStatus
	for _, s := range m.statuses {
		if s.TenantIndexName == ns {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockDocuments) Delete(_ context.Context, ns, id string) (*driving.DeleteResult, error) {
	m.deleted = append(m.deleted, ns+"/"+id)
	return &driving.DeleteResult{VectorsDeleted: 4, RecordsDeleted: 4}, nil
}

type mockReconciler struct{}

func (mockReconciler) Reconcile(_ context.Context, ns string, dryRun bool) (*driving.ReconcileReport, error) {
	return &driving.ReconcileReport{Namespace: ns, DanglingVectors: []string{"v1"}, Repaired: !dryRun}, nil
}

type mockTenants struct{}

func (mockTenants) Resolve(_ context.Context, identity domain.TenantIdentity) (string, error) {
	if identity.NormalisedChannelName() == "finance" {
		return "665f1c2ab0c4d1e2f3a4b5c6", nil
	}
	return "", domain.ErrNotFound
}
