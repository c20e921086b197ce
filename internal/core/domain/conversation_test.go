package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitConversation(t *testing.T) {
	turns := []ConversationTurn{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "what is Q2 revenue?"},
		{Role: RoleAssistant, Content: "1.1M"},
		{Role: RoleUser, Content: "and Q3?"},
	}

	question, history, ok := SplitConversation(turns)

	assert.True(t, ok)
	assert.Equal(t, "and Q3?", question)
	assert.Equal(t, turns[:3], history)
}

func TestSplitConversation_TrailingAssistantKept(t *testing.T) {
	turns := []ConversationTurn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}

	question, history, ok := SplitConversation(turns)

	assert.True(t, ok)
	assert.Equal(t, "hi", question)
	assert.Equal(t, []ConversationTurn{{Role: RoleAssistant, Content: "hello"}}, history)
}

func TestSplitConversation_NoQuestion(t *testing.T) {
	_, _, ok := SplitConversation(nil)
	assert.False(t, ok)

	_, _, ok = SplitConversation([]ConversationTurn{{Role: RoleUser, Content: "   "}})
	assert.False(t, ok)
}

func TestTenantIdentity_NormalisedChannelName(t *testing.T) {
	assert.Equal(t, "finance", TenantIdentity{ChannelName: "ask_finance"}.NormalisedChannelName())
	assert.Equal(t, "finance", TenantIdentity{ChannelName: "finance"}.NormalisedChannelName())
}

func TestInlineImage_DataURL(t *testing.T) {
	img := InlineImage{MIMEType: "image/jpeg", Data: "AAAA"}
	assert.Equal(t, "data:image/jpeg;base64,AAAA", img.DataURL())
}

func TestRetrievedContext_IsEmpty(t *testing.T) {
	assert.True(t, RetrievedContext{}.IsEmpty())
	assert.False(t, RetrievedContext{Texts: []string{"x"}}.IsEmpty())
}
