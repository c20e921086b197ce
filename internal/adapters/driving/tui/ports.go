// Package tui provides an interactive terminal chat for docchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ports aggregates the driving ports and session settings used by the TUI.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Documents lists and deletes ingested documents. Optional; the
	// Documents view is hidden without it.
	Documents driving.DocumentService

	// Namespace is the tenant namespace the session chats against.
	Namespace string

	// K is the number of records retrieved per question.
	K int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Namespace == "" {
		return ErrMissingNamespace
	}
	return nil
}
