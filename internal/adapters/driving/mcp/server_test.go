package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Chat: &mockChatService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("documents port registers resources", func(t *testing.T) {
		ports := &Ports{
			Chat:      &mockChatService{},
			Documents: &mockDocumentService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		ports := &Ports{Documents: &mockDocumentService{}}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("chat only is valid", func(t *testing.T) {
		ports := &Ports{Chat: &mockChatService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Chat:      &mockChatService{},
			Documents: &mockDocumentService{},
			Tenants:   &mockTenants{},
			DefaultK:  6,
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestServer_k(t *testing.T) {
	s := &Server{ports: &Ports{}}
	assert.Equal(t, defaultK, s.k(0))
	assert.Equal(t, 9, s.k(9))

	s.ports.DefaultK = 6
	assert.Equal(t, 6, s.k(0))
	assert.Equal(t, 6, s.k(-1))
	assert.Equal(t, 2, s.k(2))
}
