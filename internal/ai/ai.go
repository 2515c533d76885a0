// Package ai defines the contract between the chat pipeline and the
// external LLM providers, plus the system prompt templates.
package ai

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a chat-completion request.
type Message struct {
	Role    Role
	Content string
}

// Usage reports token consumption for a completed request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the result of a chat-completion request.
type Response struct {
	Content string
	Usage   *Usage
}

// Provider issues a single chat-completion request to an external LLM
// endpoint. Implementations do not retry; transient failure handling is the
// caller's concern.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (*Response, error)
}

// Config holds the resolved provider settings. Environment values take
// precedence over file-based configuration when this struct is built.
type Config struct {
	Provider    string
	Model       string
	Temperature float32
	MaxTokens   int
	APIKey      string
}
