package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// driftedPipeline has one healthy item, one orphaned record and one
// dangling vector in namespace "ns".
func driftedPipeline(t *testing.T) *pipeline {
	t.Helper()
	ctx := context.Background()
	p := newPipeline()

	_, err := p.indexer.IndexBatch(ctx, []string{"healthy"}, []any{"healthy"}, domain.Metadata{
		SourceDocumentID: "doc", TenantIndexName: "ns",
	})
	require.NoError(t, err)

	require.NoError(t, p.store.PutMany(ctx, []domain.ContentRecord{{
		ID: "orphan", Raw: "no vector", Metadata: domain.Metadata{SourceDocumentID: "doc", TenantIndexName: "ns"},
	}}))
	require.NoError(t, p.index.Upsert(ctx, "ns", []domain.VectorEntry{{
		ContentID: "dangling", Vector: []float32{1, 0, 0},
		Metadata: map[string]string{domain.MetaContentID: "dangling"},
	}}))
	return p
}

func TestReconciler_DryRun(t *testing.T) {
	p := driftedPipeline(t)
	r := NewReconciler(p.store, p.index)

	report, err := r.Reconcile(context.Background(), "ns", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"dangling"}, report.DanglingVectors)
	assert.Equal(t, []string{"orphan"}, report.OrphanedRecords)
	assert.False(t, report.Repaired)
	assert.False(t, report.Clean())

	assert.Equal(t, 2, p.store.Len(), "dry run changes nothing")
	assert.Equal(t, 2, p.index.Len("ns"))
}

func TestReconciler_Repairs(t *testing.T) {
	ctx := context.Background()
	p := driftedPipeline(t)
	r := NewReconciler(p.store, p.index)

	report, err := r.Reconcile(ctx, "ns", false)
	require.NoError(t, err)
	assert.True(t, report.Repaired)
	assert.Equal(t, 1, p.store.Len())
	assert.Equal(t, 1, p.index.Len("ns"))

	again, err := r.Reconcile(ctx, "ns", false)
	require.NoError(t, err)
	assert.True(t, again.Clean())
	assert.False(t, again.Repaired)

	// Retrieval still resolves the healthy item.
	records, err := p.retriever.Scoped("ns").Retrieve(ctx, "healthy", 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "healthy", records[0].Record.Raw)
}

func TestReconciler_RequiresNamespace(t *testing.T) {
	p := newPipeline()
	_, err := NewReconciler(p.store, p.index).Reconcile(context.Background(), "", true)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReconciler_EmptyNamespace(t *testing.T) {
	p := newPipeline()
	report, err := NewReconciler(p.store, p.index).Reconcile(context.Background(), "nothing-here", false)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}
