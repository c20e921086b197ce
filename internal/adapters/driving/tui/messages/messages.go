// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// QuestionSubmitted is sent when the user sends a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the answer to the last question back to the model.
type AnswerReceived struct {
	Answer *domain.Answer
	Err    error
}

// ConversationCleared is sent when the user starts a new conversation.
type ConversationCleared struct{}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the conversation view.
	ViewChat
	// ViewDocuments lists the ingestion status of the namespace's documents.
	ViewDocuments
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the document statuses of a namespace.
type DocumentsLoaded struct {
	Namespace string
	Documents []domain.DocumentStatus
	Err       error
}

// DocumentDeleted signals a document and its content were removed.
type DocumentDeleted struct {
	DocumentID     string
	VectorsDeleted int
	RecordsDeleted int
	Err            error
}
