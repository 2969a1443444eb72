// Package summarizer shrinks documents by splitting them into token-bounded
// chunks, summarizing each chunk and merging the results, pass after pass.
package summarizer

import (
	"context"
	"sync"

	"zerosum/internal/common"
	"zerosum/internal/document"
	"zerosum/internal/events"
	"zerosum/internal/tokenizer"
	"zerosum/pkg/logger"
)

var log = logger.WithPrefix("Summarizer")

type Summarizer struct {
	service  Service
	counter  tokenizer.Counter
	settings SettingsFunc
	emitter  events.Emitter
	metrics  *logger.Metrics

	mu   sync.Mutex
	last *document.Document
}

func New(cfg *Config) (*Summarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Summarizer{
		service:  cfg.Service,
		counter:  cfg.Counter,
		settings: cfg.getSettings(),
		emitter:  cfg.getEmitter(),
		metrics:  cfg.Metrics,
	}, nil
}

// Settings returns the settings the next call would use.
func (s *Summarizer) Settings() Settings {
	return s.settings()
}

// Summarize runs a single pass over doc with the configured chunk budget.
func (s *Summarizer) Summarize(ctx context.Context, doc document.Document) (document.Document, error) {
	st := s.settings()
	before, err := s.counter.Count(doc.Text, st.GetModel())
	if err != nil {
		return document.Document{}, err
	}
	return s.pass(ctx, doc, st, 1, before)
}

// LastSummary returns the output of the most recent successful pass.
func (s *Summarizer) LastSummary() (document.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return document.Document{}, false
	}
	return s.last.Clone(), true
}

// EstimateChunks guesses how many chunks a pass over doc produces.
func (s *Summarizer) EstimateChunks(doc document.Document) (int, error) {
	st := s.settings()
	n, err := s.counter.Count(doc.Text, st.GetModel())
	if err != nil {
		return 0, err
	}
	return estimateChunks(n, st.GetChunkTokens()), nil
}

func estimateChunks(tokens, chunkTokens int) int {
	return tokens/chunkTokens + 1
}

// pass splits doc, summarizes every chunk in order and merges the results.
// Service errors are returned as they are.
func (s *Summarizer) pass(ctx context.Context, doc document.Document, st Settings, iter, before int) (document.Document, error) {
	model := st.GetModel()
	chunkTokens := st.GetChunkTokens()
	docID := doc.ID.String()
	timer := logger.NewTimer()

	chunks, err := Split(doc, chunkTokens, s.counter, model)
	if err != nil {
		return document.Document{}, err
	}
	estimated := estimateChunks(before, chunkTokens)
	log.Infof("pass %d: %s, %d tokens, %d chunks (estimated %d)", iter, doc.Title, before, len(chunks), estimated)
	s.emitter.Emit(events.NewEvent(events.TypePassStarted, docID, events.PassStartedData{
		Iteration:       iter,
		Tokens:          before,
		Chunks:          len(chunks),
		EstimatedChunks: estimated,
	}))

	for i := range chunks {
		chunkBefore, err := s.counter.Count(chunks[i].Text, model)
		if err != nil {
			return document.Document{}, err
		}
		text, err := s.service.SummarizeChunk(ctx, chunks[i].Text, doc.Title, string(doc.Source))
		if err != nil {
			log.Errorf("pass %d chunk %d/%d failed: %v", iter, i+1, len(chunks), err)
			s.emitter.Emit(events.NewEvent(events.TypeReduceError, docID, events.ErrorData{
				Phase:     logger.PhasePass,
				Message:   err.Error(),
				Iteration: iter,
				Chunk:     i + 1,
			}))
			return document.Document{}, err
		}
		chunks[i] = chunks[i].WithText(text)

		chunkAfter, err := s.counter.Count(text, model)
		if err != nil {
			return document.Document{}, err
		}
		log.Debugf("pass %d chunk %d/%d: %d -> %d tokens: %s", iter, i+1, len(chunks), chunkBefore, chunkAfter, common.TruncateStr(text, 80))
		s.emitter.Emit(events.NewEvent(events.TypeChunkSummarized, docID, events.ChunkSummarizedData{
			Iteration:    iter,
			Chunk:        i + 1,
			TotalChunks:  len(chunks),
			TokensBefore: chunkBefore,
			TokensAfter:  chunkAfter,
		}))
		s.metrics.Emit(logger.MetricsEvent{
			LogType:      logger.LTChunkSummary,
			Phase:        logger.PhasePass,
			DocumentID:   docID,
			Iteration:    iter,
			Chunk:        i + 1,
			TotalChunks:  len(chunks),
			TokensBefore: chunkBefore,
			TokensAfter:  chunkAfter,
		})
	}

	merged := Merge(chunks)
	after, err := s.counter.Count(merged.Text, model)
	if err != nil {
		return document.Document{}, err
	}
	elapsed := timer.ElapsedMs()
	log.Infof("pass %d done: %d -> %d tokens in %dms", iter, before, after, elapsed)
	s.emitter.Emit(events.NewEvent(events.TypePassCompleted, docID, events.PassCompletedData{
		Iteration:    iter,
		TokensBefore: before,
		TokensAfter:  after,
		DurationMs:   elapsed,
	}))
	s.metrics.Emit(logger.MetricsEvent{
		LogType:      logger.LTPassEnd,
		Phase:        logger.PhasePass,
		DocumentID:   docID,
		Title:        doc.Title,
		Iteration:    iter,
		TotalChunks:  len(chunks),
		TokensBefore: before,
		TokensAfter:  after,
		DurationMs:   elapsed,
	})

	s.mu.Lock()
	last := merged.Clone()
	s.last = &last
	s.mu.Unlock()
	return merged, nil
}
