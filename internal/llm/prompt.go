// Package llm implements summarizer.Service on top of chat model providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"zerosum/internal/prompts"
)

var ErrEmptyResponse = errors.New("model returned an empty summary")

const unknownSource = "unknown"

// newTemplate builds the chunk prompt: the summarize system prompt followed
// by the chunk text as the user message.
func newTemplate() (prompt.ChatTemplate, error) {
	system, err := prompts.GetSinglePrompt(prompts.Summarize)
	if err != nil {
		return nil, fmt.Errorf("load summarize prompt: %w", err)
	}
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage("{text}")), nil
}

func promptVars(text, title, source string) map[string]any {
	if source == "" {
		source = unknownSource
	}
	return map[string]any{
		"title":  title,
		"source": source,
		"text":   text,
	}
}

// renderPrompt formats the template and returns the system and user text,
// for providers that are called directly rather than through a chain.
func renderPrompt(ctx context.Context, tpl prompt.ChatTemplate, text, title, source string) (string, string, error) {
	msgs, err := tpl.Format(ctx, promptVars(text, title, source))
	if err != nil {
		return "", "", fmt.Errorf("format prompt: %w", err)
	}
	var system, user strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case schema.System:
			system.WriteString(m.Content)
		default:
			user.WriteString(m.Content)
		}
	}
	return system.String(), user.String(), nil
}
