package domain

import "strings"

// BotChannelPrefix is stripped from chat-bot channel names before lookup.
const BotChannelPrefix = "ask_"

// TenantIdentity is what a caller knows about who is asking.
type TenantIdentity struct {
	CompanyID   string `json:"company_id,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelName string `json:"channel_name,omitempty"`
	UserEmail   string `json:"user_email,omitempty"`
}

// NormalisedChannelName returns the channel name without the bot prefix.
func (t TenantIdentity) NormalisedChannelName() string {
	return strings.TrimPrefix(t.ChannelName, BotChannelPrefix)
}
