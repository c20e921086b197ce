package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestExtractNamespace(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid namespace documents URI",
			uri:      "docchat://namespaces/acme/documents",
			expected: "acme",
		},
		{
			name:     "invalid prefix",
			uri:      "file://namespaces/acme/documents",
			expected: "",
		},
		{
			name:     "missing documents suffix",
			uri:      "docchat://namespaces/acme",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractNamespace(tt.uri))
		})
	}
}

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "docchat://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleNamespaceDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns statuses", func(t *testing.T) {
		docs := &mockDocumentService{
			statuses: []domain.DocumentStatus{
				{DocumentID: "doc-1", TenantIndexName: "acme", Name: "Q1.pptx", Status: domain.StatusSuccess, ContentCount: 7},
			},
		}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Documents: docs})
		require.NoError(t, err)

		req := makeReadResourceRequest("docchat://namespaces/acme/documents")
		result, err := server.handleNamespaceDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"document_id": "doc-1"`)
		assert.Contains(t, result.Contents[0].Text, `"status": "SUCCESS"`)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Documents: &mockDocumentService{}})
		require.NoError(t, err)

		_, err = server.handleNamespaceDocumentsResource(ctx, makeReadResourceRequest("docchat://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("database error")}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Documents: docs})
		require.NoError(t, err)

		_, err = server.handleNamespaceDocumentsResource(ctx, makeReadResourceRequest("docchat://namespaces/acme/documents"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns status", func(t *testing.T) {
		docs := &mockDocumentService{
			status: &domain.DocumentStatus{DocumentID: "doc-9", Status: domain.StatusFailure, Error: "boom"},
		}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Documents: docs})
		require.NoError(t, err)

		result, err := server.handleDocumentResource(ctx, makeReadResourceRequest("docchat://documents/doc-9"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"status": "FAILURE"`)
		assert.Contains(t, result.Contents[0].Text, `"error": "boom"`)
	})

	t.Run("empty ID returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Documents: &mockDocumentService{}})
		require.NoError(t, err)

		_, err = server.handleDocumentResource(ctx, makeReadResourceRequest("docchat://documents/"))
		require.Error(t, err)
	})

	t.Run("missing document wraps not found", func(t *testing.T) {
		docs := &mockDocumentService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Documents: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentResource(ctx, makeReadResourceRequest("docchat://documents/doc-x"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
