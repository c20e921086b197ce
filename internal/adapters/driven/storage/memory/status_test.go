package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestStatusStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStatusStore()

	_, err := s.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Save(ctx, domain.DocumentStatus{DocumentID: "doc-2", TenantIndexName: "ns", Status: domain.StatusFailure}))
	require.NoError(t, s.Save(ctx, domain.DocumentStatus{DocumentID: "doc-1", TenantIndexName: "ns", Status: domain.StatusSuccess}))
	require.NoError(t, s.Save(ctx, domain.DocumentStatus{DocumentID: "doc-3", TenantIndexName: "other"}))

	got, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, got.Status)

	list, err := s.List(ctx, "ns")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "doc-1", list[0].DocumentID)
	assert.Equal(t, "doc-2", list[1].DocumentID)

	require.NoError(t, s.Delete(ctx, "doc-1"))
	require.NoError(t, s.Delete(ctx, "doc-1"))
	_, err = s.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
