package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// setupTestStore connects to DOCCHAT_TEST_POSTGRES_DSN, skipping when unset.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DOCCHAT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCCHAT_TEST_POSTGRES_DSN not set")
	}

	store, err := NewStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestEncodeRecord(t *testing.T) {
	raw, extra, err := encodeRecord(domain.ContentRecord{ID: "a", Raw: "text"})
	require.NoError(t, err)
	assert.Equal(t, `"text"`, raw)
	assert.Equal(t, `{}`, extra)

	_, extra, err = encodeRecord(domain.ContentRecord{
		ID: "b", Raw: domain.Table{Columns: []string{"x"}},
		Metadata: domain.Metadata{Extra: map[string]string{"k": "v"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, extra)

	_, _, err = encodeRecord(domain.ContentRecord{Raw: "no id"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = encodeRecord(domain.ContentRecord{ID: "c", Raw: 42})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIsZero(t *testing.T) {
	assert.True(t, isZero([]float32{0, 0}))
	assert.False(t, isZero([]float32{0, 0.1}))
}

func TestStore_Integration(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ns := "test-" + uuid.NewString()
	doc := "doc-" + uuid.NewString()

	cs := store.ContentStore()
	vi := store.VectorIndex()
	ss := store.StatusStore()

	table := domain.Table{Columns: []string{"quarter"}, Rows: [][]string{{"Q3"}}}
	meta := domain.Metadata{SourceDocumentID: doc, TenantIndexName: ns}
	require.NoError(t, cs.PutMany(ctx, []domain.ContentRecord{
		{ID: ns + "-a", Raw: "alpha", Metadata: meta},
		{ID: ns + "-b", Raw: table, Metadata: meta},
	}))

	got, err := cs.GetMany(ctx, []string{ns + "-a", ns + "-b"})
	require.NoError(t, err)
	assert.Equal(t, "alpha", got[ns+"-a"].Raw)
	assert.Equal(t, table, got[ns+"-b"].Raw)

	require.NoError(t, vi.EnsureNamespace(ctx, ns, 2))
	assert.ErrorIs(t, vi.EnsureNamespace(ctx, ns, 3), domain.ErrDimensionMismatch)
	require.NoError(t, vi.Upsert(ctx, ns, []domain.VectorEntry{
		{ContentID: ns + "-a", Vector: []float32{1, 0}, Metadata: domain.EntryMetadata(ns+"-a", meta)},
		{ContentID: ns + "-b", Vector: []float32{0, 1}, Metadata: domain.EntryMetadata(ns+"-b", meta)},
	}))

	matches, err := vi.Search(ctx, ns, []float32{1, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, ns+"-a", matches[0].ContentID)
	assert.Equal(t, doc, matches[0].Metadata[domain.MetaSourceDocumentID])

	ids, err := vi.DeleteByDocument(ctx, ns, doc)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	n, err := cs.DeleteByDocument(ctx, ns, doc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, ss.Save(ctx, domain.DocumentStatus{
		DocumentID: doc, TenantIndexName: ns, Status: domain.StatusSuccess, UpdatedAt: time.Now(),
	}))
	status, err := ss.Get(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status.Status)
	require.NoError(t, ss.Delete(ctx, doc))
	_, err = ss.Get(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
