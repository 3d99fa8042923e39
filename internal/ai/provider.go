package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Provider sends a conversation to a remote language model and returns the
// assistant's reply text.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
