package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// EinoService summarizes chunks with a compiled ChatTemplate -> ChatModel chain.
type EinoService struct {
	chain    compose.Runnable[map[string]any, *schema.Message]
	handlers []callbacks.Handler
}

// NewEinoService compiles the chunk chain around m. Handlers are attached to
// every invocation.
func NewEinoService(ctx context.Context, m model.BaseChatModel, handlers ...callbacks.Handler) (*EinoService, error) {
	tpl, err := newTemplate()
	if err != nil {
		return nil, err
	}
	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(tpl).
		AppendChatModel(m).
		Compile(ctx, compose.WithGraphName("ChunkSummarizer"))
	if err != nil {
		return nil, fmt.Errorf("compile summarizer failed, err=%w", err)
	}
	return &EinoService{chain: chain, handlers: handlers}, nil
}

func (s *EinoService) SummarizeChunk(ctx context.Context, text, title, source string) (string, error) {
	var opts []compose.Option
	if len(s.handlers) > 0 {
		opts = append(opts, compose.WithCallbacks(s.handlers...))
	}
	msg, err := s.chain.Invoke(ctx, promptVars(text, title, source), opts...)
	if err != nil {
		return "", err
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyResponse
	}
	return msg.Content, nil
}

// NewOpenAIModel creates an OpenAI compatible chat model. An empty baseURL
// uses the public endpoint.
func NewOpenAIModel(ctx context.Context, apiKey, modelName, baseURL string) (model.BaseChatModel, error) {
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: baseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	return m, nil
}
