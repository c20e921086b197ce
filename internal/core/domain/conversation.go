package domain

import "strings"

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// ConversationTurn is one message in a conversation.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SplitConversation separates the question (the last user turn) from the
// history (every other turn, in order). It returns ok=false when the
// conversation has no user turn with non-blank content.
func SplitConversation(turns []ConversationTurn) (question string, history []ConversationTurn, ok bool) {
	idx := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser && strings.TrimSpace(turns[i].Content) != "" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", nil, false
	}

	history = make([]ConversationTurn, 0, len(turns)-1)
	history = append(history, turns[:idx]...)
	history = append(history, turns[idx+1:]...)
	return turns[idx].Content, history, true
}
