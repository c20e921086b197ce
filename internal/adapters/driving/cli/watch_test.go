package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/connectors/filesystem"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestWatchCmd_Flags(t *testing.T) {
	assert.Equal(t, "watch [path]", watchCmd.Use)
	settle := watchCmd.Flags().Lookup("settle")
	require.NotNil(t, settle)
	assert.Equal(t, filesystem.DefaultSettle.String(), settle.DefValue)
	assert.NotNil(t, watchCmd.Flags().Lookup("initial"))
}

func TestApplyChange_Upsert(t *testing.T) {
	mocks, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	err := applyChange(context.Background(), "acme", filesystem.Change{
		Type:       filesystem.ChangeUpserted,
		DocumentID: "fs:a.txt",
		Document: &domain.RawDocument{
			ID: "fs:a.txt", Name: "a.txt", MIMEType: "text/plain", Content: []byte("hello"),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"acme/fs:a.txt"}, mocks.documents.deleted)
	require.Len(t, mocks.ingest.ingested, 1)
	assert.Equal(t, "acme", mocks.ingest.ingested[0].TenantIndexName)
	assert.Equal(t, []string{"hello"}, mocks.ingest.ingested[0].Texts)
}

func TestApplyChange_Removed(t *testing.T) {
	mocks, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	err := applyChange(context.Background(), "acme", filesystem.Change{
		Type:       filesystem.ChangeRemoved,
		DocumentID: "fs:a.txt",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"acme/fs:a.txt"}, mocks.documents.deleted)
	assert.Empty(t, mocks.ingest.ingested)
}

func TestApplyChange_UnsupportedSkipped(t *testing.T) {
	mocks, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	err := applyChange(context.Background(), "acme", filesystem.Change{
		Type:       filesystem.ChangeUpserted,
		DocumentID: "fs:a.bin",
		Document:   &domain.RawDocument{ID: "fs:a.bin", MIMEType: "application/octet-stream"},
	})

	require.NoError(t, err)
	assert.Empty(t, mocks.documents.deleted)
	assert.Empty(t, mocks.ingest.ingested)
}

func TestApplyChange_UnknownType(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	err := applyChange(context.Background(), "acme", filesystem.Change{Type: "renamed"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWatchCmd_MissingDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "watch", "-n", "acme", filepath.Join(t.TempDir(), "missing"))

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestWatchCmd_NoService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	ingestService = nil

	_, err := execute(t, "watch", t.TempDir())

	assert.EqualError(t, err, "ingestion services not configured")
}
