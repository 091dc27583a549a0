package model

import (
	"context"
	"fmt"
	"strconv"
)

// DefaultModelName is the model name reported when neither the node nor the
// caller names one.
const DefaultModelName = "GPT-4"

// Placeholder is an offline ChatModel that echoes the prompt in a fixed
// format. It is the llm node's model when no provider is configured, which
// keeps runs deterministic:
//
//	[GPT-4] Response to: "Hello" (temp: 0.7) [system: "Be brief"]
type Placeholder struct{}

// Chat implements ChatModel. The last user message is the prompt; the
// system suffix is added only when a system message is present.
func (Placeholder) Chat(ctx context.Context, messages []Message, params Params) (ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return ChatOut{}, err
	}

	name := params.Model
	if name == "" {
		name = DefaultModelName
	}

	system, rest := SplitSystem(messages)
	var prompt string
	for _, msg := range rest {
		if msg.Role == RoleUser {
			prompt = msg.Content
		}
	}

	text := fmt.Sprintf("[%s] Response to: \"%s\" (temp: %s)", name, prompt, FormatNumber(params.Temperature))
	if system != "" {
		text += fmt.Sprintf(" [system: \"%s\"]", system)
	}
	return ChatOut{Text: text, Model: name}, nil
}

// FormatNumber renders a float the shortest way that round-trips, so 1.0
// prints as "1" and 0.7 as "0.7".
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
