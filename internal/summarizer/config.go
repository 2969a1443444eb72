package summarizer

import (
	"context"
	"errors"

	"zerosum/internal/events"
	"zerosum/internal/tokenizer"
	"zerosum/pkg/logger"
)

var (
	ErrConfigNil       = errors.New("summarizer config is nil")
	ErrServiceRequired = errors.New("summarizer service is required")
	ErrCounterRequired = errors.New("token counter is required")
)

// Service summarizes one chunk of a document. Title and source are context
// for the prompt; the returned text replaces the chunk's text.
type Service interface {
	SummarizeChunk(ctx context.Context, text, title, source string) (string, error)
}

// ServiceFunc adapts a plain function to Service.
type ServiceFunc func(ctx context.Context, text, title, source string) (string, error)

func (f ServiceFunc) SummarizeChunk(ctx context.Context, text, title, source string) (string, error) {
	return f(ctx, text, title, source)
}

// Defaults used when a setting is unset or non-positive.
const (
	DefaultModel         = "gpt-4o"
	DefaultChunkTokens   = 2500
	DefaultTokenLimit    = 750
	DefaultMaxIterations = 10
)

// Settings are the tunables read on every call.
type Settings struct {
	// Model selects the tokenizer encoding.
	Model string
	// ChunkTokens is the per-chunk budget used by Split.
	ChunkTokens int
	// TokenLimit is the target size of a reduction.
	TokenLimit int
	// MaxIterations caps the number of passes of a reduction.
	MaxIterations int
}

func (s Settings) GetModel() string {
	if s.Model == "" {
		return DefaultModel
	}
	return s.Model
}

func (s Settings) GetChunkTokens() int {
	if s.ChunkTokens <= 0 {
		return DefaultChunkTokens
	}
	return s.ChunkTokens
}

func (s Settings) GetTokenLimit() int {
	if s.TokenLimit <= 0 {
		return DefaultTokenLimit
	}
	return s.TokenLimit
}

func (s Settings) GetMaxIterations() int {
	if s.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return s.MaxIterations
}

// SettingsFunc supplies the current settings. It is called at the start of
// every operation so configuration edits apply to the next call.
type SettingsFunc func() Settings

// Static returns a SettingsFunc that always yields s.
func Static(s Settings) SettingsFunc {
	return func() Settings { return s }
}

// Config wires a Summarizer.
//
// Required fields:
//   - Service: summarizes each chunk
//   - Counter: measures text in tokens
//
// Optional fields:
//   - Settings: defaults to Static(Settings{})
//   - Emitter: progress events, defaults to events.NopEmitter
//   - Metrics: ES reporting, nil disables it
type Config struct {
	Service  Service
	Counter  tokenizer.Counter
	Settings SettingsFunc
	Emitter  events.Emitter
	Metrics  *logger.Metrics
}

// Validate checks that the required collaborators are present.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.Service == nil {
		return ErrServiceRequired
	}
	if c.Counter == nil {
		return ErrCounterRequired
	}
	return nil
}

func (c *Config) getSettings() SettingsFunc {
	if c.Settings == nil {
		return Static(Settings{})
	}
	return c.Settings
}

func (c *Config) getEmitter() events.Emitter {
	if c.Emitter == nil {
		return events.NopEmitter{}
	}
	return c.Emitter
}
