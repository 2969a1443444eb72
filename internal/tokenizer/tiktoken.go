// Package tokenizer counts tokens the way the active language model does.
package tokenizer

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"zerosum/pkg/logger"
)

const (
	// DefaultEncoding is used whenever the model is unknown to tiktoken.
	DefaultEncoding = "cl100k_base"
	// FallbackModel is a model name whose encoding is DefaultEncoding.
	FallbackModel = "gpt-4"

	encoderCacheSize = 16
)

// Counter returns the number of tokens text occupies under model's encoding.
type Counter interface {
	Count(text, model string) (int, error)
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(text, model string) (int, error)

func (f CounterFunc) Count(text, model string) (int, error) {
	return f(text, model)
}

// TiktokenCounter implements Counter with tiktoken-go. Encoders are cached per
// model name so repeated counts during splitting stay cheap.
type TiktokenCounter struct {
	encoders *lru.Cache[string, *tiktoken.Tiktoken]
}

var loaderOnce sync.Once

// useOfflineLoader serves BPE ranks from the embedded tables instead of
// downloading them on first use.
func useOfflineLoader() {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
}

func NewTiktokenCounter() (*TiktokenCounter, error) {
	useOfflineLoader()
	cache, err := lru.New[string, *tiktoken.Tiktoken](encoderCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create encoder cache: %w", err)
	}
	return &TiktokenCounter{encoders: cache}, nil
}

// Encoding resolves the encoder for model, falling back to DefaultEncoding
// when tiktoken does not know the model.
func (c *TiktokenCounter) Encoding(model string) (*tiktoken.Tiktoken, error) {
	if enc, ok := c.encoders.Get(model); ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Infof("[Tokenizer] model %q unknown (%v), using %s", model, err, DefaultEncoding)
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("get encoding failed, encoding=%v, err=%w", DefaultEncoding, err)
		}
	}
	c.encoders.Add(model, enc)
	return enc, nil
}

func (c *TiktokenCounter) Count(text, model string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc, err := c.Encoding(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
