package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"

	"zerosum/internal/summarizer"
	"zerosum/pkg/logger"
)

var log = logger.WithPrefix("LLM")

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrAPIKeyRequired  = errors.New("llm api key is required")
)

// Options selects and configures a provider.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	// MaxTokens bounds each Claude reply. Other providers ignore it.
	MaxTokens int
	// Handlers observe the eino chain of the openai provider.
	Handlers []callbacks.Handler
}

var apiKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// apiKey returns the configured key or the provider's conventional env var.
func (o Options) apiKey() string {
	if o.APIKey != "" {
		return o.APIKey
	}
	return os.Getenv(apiKeyEnv[o.Provider])
}

// New builds the summarizer service for opts.Provider. An empty provider
// means openai.
func New(ctx context.Context, opts Options) (summarizer.Service, error) {
	if opts.Provider == "" {
		opts.Provider = ProviderOpenAI
	}
	if _, ok := apiKeyEnv[opts.Provider]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
	}
	key := opts.apiKey()
	if key == "" {
		return nil, fmt.Errorf("%w: set api_key or %s", ErrAPIKeyRequired, apiKeyEnv[opts.Provider])
	}
	log.Infof("using provider %s, model %s", opts.Provider, opts.Model)

	var (
		svc summarizer.Service
		err error
	)
	switch opts.Provider {
	case ProviderAnthropic:
		svc, err = NewAnthropicService(key, opts.Model, opts.BaseURL, opts.MaxTokens)
	case ProviderGemini:
		svc, err = NewGeminiService(ctx, key, opts.Model, opts.BaseURL)
	default:
		var m model.BaseChatModel
		if m, err = NewOpenAIModel(ctx, key, opts.Model, opts.BaseURL); err == nil {
			svc, err = NewEinoService(ctx, m, opts.Handlers...)
		}
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}
