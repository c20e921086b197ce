package mcp

import (
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Chat answers questions and runs retrieval.
	Chat driving.ChatService

	// Documents exposes ingestion status as resources.
	Documents driving.DocumentService

	// Tenants resolves channel identities when no namespace is given.
	Tenants driven.TenantResolver

	// DefaultK is used when a tool call omits k.
	DefaultK int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	// Documents and Tenants are optional.
	return nil
}
