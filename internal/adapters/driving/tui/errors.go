package tui

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("tui: chat service is required")

// ErrMissingNamespace is returned when no tenant namespace is given.
var ErrMissingNamespace = errors.New("tui: namespace is required")
