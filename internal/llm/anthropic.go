package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/prompt"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicService summarizes chunks with the Claude Messages API.
type AnthropicService struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	tpl       prompt.ChatTemplate
}

func NewAnthropicService(apiKey, modelName, baseURL string, maxTokens int) (*AnthropicService, error) {
	tpl, err := newTemplate()
	if err != nil {
		return nil, err
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicService{
		client:    anthropic.NewClient(opts...),
		model:     modelName,
		maxTokens: int64(maxTokens),
		tpl:       tpl,
	}, nil
}

func (s *AnthropicService) SummarizeChunk(ctx context.Context, text, title, source string) (string, error) {
	system, user, err := renderPrompt(ctx, s.tpl, text, title, source)
	if err != nil {
		return "", err
	}
	log.Debugf("anthropic request: model=%s, %d chars", s.model, len(user))
	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", ErrEmptyResponse
	}
	return out.String(), nil
}
