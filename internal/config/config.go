package config

import (
	"errors"
	"fmt"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Keys of every configurable value. They double as viper keys, env suffixes
// (ZEROSUM_<KEY>) and subscription names for Store.OnChange.
const (
	KeyLLMModel        = "llm_model"
	KeyProvider        = "provider"
	KeyAPIKey          = "api_key"
	KeyBaseURL         = "base_url"
	KeyChunkTokens     = "document_chunk_tokens"
	KeyFinalTokenLimit = "final_token_limit"
	KeyMaxIterations   = "max_iterations"
	KeyLogLevel        = "log_level"
	KeyUseFileLogging  = "use_file_logging"
	KeyLogPath         = "log_path"
	KeyESAddresses     = "es_addresses"
	KeyESUsername      = "es_username"
	KeyESPassword      = "es_password"
	KeyESIndex         = "es_index"
	KeyHistoryPath     = "history_path"
)

// Defaults.
const (
	DefaultLLMModel        = "gpt-4o"
	DefaultProvider        = ProviderOpenAI
	DefaultChunkTokens     = 2500
	DefaultFinalTokenLimit = 750
	DefaultMaxIterations   = 10
	DefaultLogLevel        = "warn"
	DefaultLogPath         = "./logs/zero_sum.log"
	DefaultESIndex         = "zero_sum_logs"
	DefaultHistoryPath     = "./zerosum.db"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

var (
	ErrConfigNil       = errors.New("config is nil")
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrUnknownKey      = errors.New("unknown config key")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config is the full application configuration.
type Config struct {
	LLMModel        string   `mapstructure:"llm_model"`
	Provider        string   `mapstructure:"provider"`
	APIKey          string   `mapstructure:"api_key"`
	BaseURL         string   `mapstructure:"base_url"`
	ChunkTokens     int      `mapstructure:"document_chunk_tokens"`
	FinalTokenLimit int      `mapstructure:"final_token_limit"`
	MaxIterations   int      `mapstructure:"max_iterations"`
	LogLevel        string   `mapstructure:"log_level"`
	UseFileLogging  bool     `mapstructure:"use_file_logging"`
	LogPath         string   `mapstructure:"log_path"`
	ESAddresses     []string `mapstructure:"es_addresses"`
	ESUsername      string   `mapstructure:"es_username"`
	ESPassword      string   `mapstructure:"es_password"`
	ESIndex         string   `mapstructure:"es_index"`
	HistoryPath     string   `mapstructure:"history_path"`
}

// Default returns a Config populated with every default value.
func Default() Config {
	return Config{
		LLMModel:        DefaultLLMModel,
		Provider:        DefaultProvider,
		ChunkTokens:     DefaultChunkTokens,
		FinalTokenLimit: DefaultFinalTokenLimit,
		MaxIterations:   DefaultMaxIterations,
		LogLevel:        DefaultLogLevel,
		LogPath:         DefaultLogPath,
		ESIndex:         DefaultESIndex,
		HistoryPath:     DefaultHistoryPath,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	switch c.GetProvider() {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if _, err := charmlog.ParseLevel(c.GetLogLevel()); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return nil
}

func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return strings.ToLower(c.LogLevel)
}

func (c *Config) GetLLMModel() string {
	if c.LLMModel == "" {
		return DefaultLLMModel
	}
	return c.LLMModel
}

func (c *Config) GetProvider() string {
	if c.Provider == "" {
		return DefaultProvider
	}
	return strings.ToLower(c.Provider)
}

// GetChunkTokens returns the effective chunk budget, using default if not set.
func (c *Config) GetChunkTokens() int {
	if c.ChunkTokens <= 0 {
		return DefaultChunkTokens
	}
	return c.ChunkTokens
}

// GetFinalTokenLimit returns the effective reduction target, using default if not set.
func (c *Config) GetFinalTokenLimit() int {
	if c.FinalTokenLimit <= 0 {
		return DefaultFinalTokenLimit
	}
	return c.FinalTokenLimit
}

func (c *Config) GetMaxIterations() int {
	if c.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return c.MaxIterations
}

func (c *Config) GetESIndex() string {
	if c.ESIndex == "" {
		return DefaultESIndex
	}
	return c.ESIndex
}

func (c *Config) GetHistoryPath() string {
	if c.HistoryPath == "" {
		return DefaultHistoryPath
	}
	return c.HistoryPath
}

// values flattens the config into key/value pairs so two snapshots can be diffed.
func (c Config) values() map[string]any {
	return map[string]any{
		KeyLLMModel:        c.LLMModel,
		KeyProvider:        c.Provider,
		KeyAPIKey:          c.APIKey,
		KeyBaseURL:         c.BaseURL,
		KeyChunkTokens:     c.ChunkTokens,
		KeyFinalTokenLimit: c.FinalTokenLimit,
		KeyMaxIterations:   c.MaxIterations,
		KeyLogLevel:        c.LogLevel,
		KeyUseFileLogging:  c.UseFileLogging,
		KeyLogPath:         c.LogPath,
		KeyESAddresses:     strings.Join(c.ESAddresses, ","),
		KeyESUsername:      c.ESUsername,
		KeyESPassword:      c.ESPassword,
		KeyESIndex:         c.ESIndex,
		KeyHistoryPath:     c.HistoryPath,
	}
}
