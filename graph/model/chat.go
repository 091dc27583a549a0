// Package model provides LLM integration adapters for the llm node.
package model

import "context"

// ChatModel defines the interface for LLM chat providers.
//
// This interface abstracts the differences between providers (OpenAI,
// Anthropic, Google, the offline Placeholder) behind a single call.
//
// Implementations should:
//   - Convert the standard Message format to the provider's format
//   - Apply Params where the provider supports them
//   - Respect context cancellation and timeouts
//
// Example usage:
//
//	m := openai.NewChatModel(apiKey, "gpt-4o-mini")
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleSystem, Content: "Answer briefly."},
//	    {Role: model.RoleUser, Content: "What is the capital of France?"},
//	}, model.Params{Temperature: 0.2})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(out.Text)
type ChatModel interface {
	// Chat sends messages to the LLM and returns the response.
	Chat(ctx context.Context, messages []Message, params Params) (ChatOut, error)
}

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role identifies the message sender. Use the Role* constants.
	Role string

	// Content contains the message text.
	Content string
}

// Standard role constants for LLM conversations.
const (
	// RoleSystem indicates a system message that sets context or instructions.
	RoleSystem = "system"

	// RoleUser indicates a message from the human user.
	RoleUser = "user"

	// RoleAssistant indicates a response from the LLM.
	RoleAssistant = "assistant"
)

// Params carries per-call generation settings.
//
// Zero values mean "use the provider default", except Temperature, which is
// always sent when the provider supports it.
type Params struct {
	// Model is the model name the caller asked for. Placeholder reports it;
	// SDK-backed providers always use the model they were built with.
	Model string

	// Temperature controls sampling randomness.
	Temperature float64

	// MaxTokens bounds the response length. 0 uses the provider default.
	MaxTokens int
}

// ChatOut represents the output from an LLM chat completion.
type ChatOut struct {
	// Text contains the LLM's generated response.
	Text string

	// Model is the model that produced the response, when the provider
	// reports it.
	Model string
}

// SplitSystem separates system messages from the conversation. Multiple
// system messages are joined with a blank line.
func SplitSystem(messages []Message) (string, []Message) {
	var system string
	var rest []Message
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}
