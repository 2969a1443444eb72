package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cloudwego/eino/callbacks"
	"github.com/elastic/go-elasticsearch/v7"

	"zerosum/internal/config"
	"zerosum/internal/events"
	"zerosum/internal/history"
	"zerosum/internal/llm"
	"zerosum/internal/summarizer"
	"zerosum/internal/tokenizer"
	"zerosum/pkg/logger"
)

// app holds what every command shares. The constructor hooks are replaced in tests.
type app struct {
	out    io.Writer
	errOut io.Writer

	store   *config.Store
	es      *elasticsearch.Client
	counter tokenizer.Counter

	newCounter func() (tokenizer.Counter, error)
	newService func(ctx context.Context, cfg config.Config, cb *logger.ChatCallback) (summarizer.Service, error)

	closeOnce sync.Once
	closers   []io.Closer
}

func newApp() *app {
	return &app{
		out:    os.Stdout,
		errOut: os.Stderr,
		newCounter: func() (tokenizer.Counter, error) {
			return tokenizer.NewTiktokenCounter()
		},
		newService: func(ctx context.Context, cfg config.Config, cb *logger.ChatCallback) (summarizer.Service, error) {
			return llm.New(ctx, llm.Options{
				Provider: cfg.GetProvider(),
				Model:    cfg.GetLLMModel(),
				APIKey:   cfg.APIKey,
				BaseURL:  cfg.BaseURL,
				Handlers: []callbacks.Handler{cb},
			})
		},
	}
}

// setup loads configuration and wires logging. It runs before every command.
func (a *app) setup(configPath, logLevel string) error {
	store, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a.store = store

	cfg := store.Get()
	if err := logger.Configure(cfg.GetLogLevel(), cfg.UseFileLogging, cfg.LogPath); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	logger.Bind(store)
	if logLevel != "" {
		if err := store.Set(config.KeyLogLevel, logLevel); err != nil {
			return err
		}
	}
	if store.Watch() {
		a.closers = append(a.closers, store)
		logger.Debugf("[CLI] watching %s", store.FileUsed())
	}

	a.es, err = logger.NewESClient(cfg.ESAddresses, cfg.ESUsername, cfg.ESPassword)
	if err != nil {
		return err
	}

	a.counter, err = a.newCounter()
	if err != nil {
		return fmt.Errorf("create token counter: %w", err)
	}
	return nil
}

// settings maps the live configuration to summarizer settings on every call.
func (a *app) settings() summarizer.Settings {
	cfg := a.store.Get()
	return summarizer.Settings{
		Model:         cfg.GetLLMModel(),
		ChunkTokens:   cfg.GetChunkTokens(),
		TokenLimit:    cfg.GetFinalTokenLimit(),
		MaxIterations: cfg.GetMaxIterations(),
	}
}

// newSummarizer builds the summarizer and its event plumbing. The returned
// func closes the emitter and waits for every consumer to drain.
func (a *app) newSummarizer(ctx context.Context, progress bool) (*summarizer.Summarizer, func(), error) {
	cfg := a.store.Get()
	cb := &logger.ChatCallback{Es: a.es, Index: cfg.GetESIndex()}
	svc, err := a.newService(ctx, cfg, cb)
	if err != nil {
		return nil, nil, err
	}

	emitter := events.NewChannelEmitter(256)
	var done []<-chan struct{}
	if progress {
		done = append(done, startProgressPrinter(emitter, a.errOut))
	}
	if a.es != nil {
		done = append(done, events.NewESConsumer(a.es, cfg.GetESIndex()).Start(emitter))
	}

	s, err := summarizer.New(&summarizer.Config{
		Service:  svc,
		Counter:  a.counter,
		Settings: a.settings,
		Emitter:  emitter,
		Metrics:  logger.NewMetrics(a.es, cfg.GetESIndex()),
	})
	if err != nil {
		emitter.Close()
		return nil, nil, err
	}
	return s, func() {
		emitter.Close()
		for _, d := range done {
			<-d
		}
	}, nil
}

func (a *app) openHistory() (*history.Store, error) {
	cfg := a.store.Get()
	h, err := history.OpenStore(cfg.GetHistoryPath())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, h)
	return h, nil
}

func (a *app) close() {
	a.closeOnce.Do(func() {
		for _, c := range a.closers {
			_ = c.Close()
		}
	})
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
