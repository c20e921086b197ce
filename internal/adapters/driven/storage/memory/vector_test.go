package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func entry(id, doc string, v ...float32) domain.VectorEntry {
	return domain.VectorEntry{
		ContentID: id,
		Vector:    v,
		Metadata:  map[string]string{domain.MetaContentID: id, domain.MetaSourceDocumentID: doc},
	}
}

func TestVectorIndex_EnsureNamespace_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	v := NewVectorIndex()

	require.NoError(t, v.EnsureNamespace(ctx, "ns", 3))
	require.NoError(t, v.EnsureNamespace(ctx, "ns", 3))
	assert.ErrorIs(t, v.EnsureNamespace(ctx, "ns", 4), domain.ErrDimensionMismatch)
	assert.ErrorIs(t, v.EnsureNamespace(ctx, "other", 0), domain.ErrConfiguration)
}

func TestVectorIndex_Upsert_RequiresNamespace(t *testing.T) {
	err := NewVectorIndex().Upsert(context.Background(), "missing", []domain.VectorEntry{entry("a", "d", 1)})
	assert.ErrorIs(t, err, domain.ErrNamespaceNotFound)
}

func TestVectorIndex_Upsert_RejectsWrongDimensions(t *testing.T) {
	ctx := context.Background()
	v := NewVectorIndex()
	require.NoError(t, v.EnsureNamespace(ctx, "ns", 2))

	err := v.Upsert(ctx, "ns", []domain.VectorEntry{entry("a", "d", 1, 0), entry("b", "d", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Zero(t, v.Len("ns"), "nothing is written when any entry is invalid")
}

func TestVectorIndex_Search(t *testing.T) {
	ctx := context.Background()
	v := NewVectorIndex()
	require.NoError(t, v.EnsureNamespace(ctx, "ns", 2))
	require.NoError(t, v.Upsert(ctx, "ns", []domain.VectorEntry{
		entry("far", "d", 0, 1),
		entry("near", "d", 1, 0.1),
		entry("exact", "d", 1, 0),
	}))

	matches, err := v.Search(ctx, "ns", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].ContentID)
	assert.Equal(t, "near", matches[1].ContentID)
	assert.Equal(t, "exact", matches[0].Metadata[domain.MetaContentID])

	_, err = v.Search(ctx, "ns", []float32{1, 0, 0}, 2)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_Search_UnknownNamespaceIsEmpty(t *testing.T) {
	matches, err := NewVectorIndex().Search(context.Background(), "nobody", []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorIndex_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	v := NewVectorIndex()
	require.NoError(t, v.EnsureNamespace(ctx, "a", 2))
	require.NoError(t, v.EnsureNamespace(ctx, "b", 2))
	require.NoError(t, v.Upsert(ctx, "b", []domain.VectorEntry{entry("only-b", "d", 1, 0)}))

	matches, err := v.Search(ctx, "a", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorIndex_DeleteByDocument(t *testing.T) {
	ctx := context.Background()
	v := NewVectorIndex()
	require.NoError(t, v.EnsureNamespace(ctx, "ns", 1))
	require.NoError(t, v.Upsert(ctx, "ns", []domain.VectorEntry{
		entry("b", "doc-1", 1), entry("a", "doc-1", 1), entry("c", "doc-2", 1),
	}))

	deleted, err := v.DeleteByDocument(ctx, "ns", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, deleted)

	require.NoError(t, v.Delete(ctx, "ns", []string{"c"}))
	assert.Zero(t, v.Len("ns"))
}

func TestVectorIndex_ListIDs(t *testing.T) {
	ctx := context.Background()
	v := NewVectorIndex()
	require.NoError(t, v.EnsureNamespace(ctx, "ns", 1))
	require.NoError(t, v.Upsert(ctx, "ns", []domain.VectorEntry{entry("z", "d", 1), entry("m", "d", 1)}))

	var ids []string
	for id, err := range v.ListIDs(ctx, "ns") {
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"m", "z"}, ids)
}
