package summarizer

import (
	"context"

	"zerosum/internal/document"
	"zerosum/internal/events"
	"zerosum/pkg/logger"
)

// Termination tells why a reduction stopped.
type Termination string

const (
	// Converged: the document is below the token limit.
	Converged Termination = "converged"
	// Stalled: the last pass shrank the document by less than StallRatio.
	Stalled Termination = "stalled"
	// IterationLimit: the pass budget ran out above the limit.
	IterationLimit Termination = "iteration_limit"
)

// StallRatio is the minimum relative shrink a pass must achieve to continue.
const StallRatio = 0.1

// Result describes a finished reduction.
type Result struct {
	Document      document.Document
	Iterations    int
	InitialTokens int
	FinalTokens   int
	Termination   Termination
}

// Converged reports whether the document fits the requested limit.
func (r Result) Converged() bool {
	return r.Termination == Converged
}

// Reduce runs passes over doc until it is below tokenLimit, a pass stops
// paying off, or maxIterations passes have run. Non-positive arguments use
// the configured values. The returned document may still exceed tokenLimit.
func (s *Summarizer) Reduce(ctx context.Context, doc document.Document, tokenLimit, maxIterations int) (document.Document, error) {
	res, err := s.ReduceDetailed(ctx, doc, tokenLimit, maxIterations)
	if err != nil {
		return document.Document{}, err
	}
	return res.Document, nil
}

// ReduceToLimit reduces doc with the configured limit and iteration cap.
func (s *Summarizer) ReduceToLimit(ctx context.Context, doc document.Document) (document.Document, error) {
	return s.Reduce(ctx, doc, 0, 0)
}

// ReduceDetailed is Reduce with the termination reason and token counts.
func (s *Summarizer) ReduceDetailed(ctx context.Context, doc document.Document, tokenLimit, maxIterations int) (Result, error) {
	st := s.settings()
	if tokenLimit <= 0 {
		tokenLimit = st.GetTokenLimit()
	}
	if maxIterations <= 0 {
		maxIterations = st.GetMaxIterations()
	}
	model := st.GetModel()
	docID := doc.ID.String()
	timer := logger.NewTimer()

	work := doc.Clone()
	prev, err := s.counter.Count(work.Text, model)
	if err != nil {
		return Result{}, err
	}
	res := Result{InitialTokens: prev}

	log.Infof("reduce %s: %d tokens, limit %d, max %d passes", doc.Title, prev, tokenLimit, maxIterations)
	s.emitter.Emit(events.NewEvent(events.TypeReduceStarted, docID, events.ReduceStartedData{
		Title:         doc.Title,
		Tokens:        prev,
		TokenLimit:    tokenLimit,
		MaxIterations: maxIterations,
	}))
	s.metrics.Emit(logger.MetricsEvent{
		LogType:      logger.LTReduceStart,
		Phase:        logger.PhaseReduce,
		DocumentID:   docID,
		Title:        doc.Title,
		TokensBefore: prev,
	})

	for {
		next, err := s.pass(ctx, work, st, res.Iterations+1, prev)
		if err != nil {
			s.metrics.Emit(logger.MetricsEvent{
				LogType:    logger.LTReduceError,
				Phase:      logger.PhaseReduce,
				DocumentID: docID,
				Title:      doc.Title,
				Iteration:  res.Iterations + 1,
				DurationMs: timer.ElapsedMs(),
				Error:      err.Error(),
			})
			return Result{}, err
		}
		work = next
		res.Iterations++

		cur, err := s.counter.Count(work.Text, model)
		if err != nil {
			return Result{}, err
		}
		res.FinalTokens = cur

		if term, done := checkStop(prev, cur, tokenLimit, res.Iterations, maxIterations); done {
			res.Termination = term
			break
		}
		prev = cur
	}
	res.Document = work

	elapsed := timer.ElapsedMs()
	log.Infof("reduce %s finished: %s after %d passes, %d -> %d tokens", doc.Title, res.Termination, res.Iterations, res.InitialTokens, res.FinalTokens)
	s.emitter.Emit(events.NewEvent(events.TypeReduceFinished, docID, events.ReduceFinishedData{
		Iterations:    res.Iterations,
		InitialTokens: res.InitialTokens,
		FinalTokens:   res.FinalTokens,
		Termination:   string(res.Termination),
		DurationMs:    elapsed,
	}))
	s.metrics.Emit(logger.MetricsEvent{
		LogType:      logger.LTReduceEnd,
		Phase:        logger.PhaseReduce,
		DocumentID:   docID,
		Title:        doc.Title,
		Iteration:    res.Iterations,
		TokensBefore: res.InitialTokens,
		TokensAfter:  res.FinalTokens,
		DurationMs:   elapsed,
		Detail:       res.Termination,
	})
	return res, nil
}

// checkStop evaluates the stop conditions in order: limit, stall, pass budget.
func checkStop(prev, cur, tokenLimit, iter, maxIterations int) (Termination, bool) {
	if cur < tokenLimit {
		return Converged, true
	}
	diff := prev - cur
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) < StallRatio*float64(prev) {
		return Stalled, true
	}
	if iter >= maxIterations {
		return IterationLimit, true
	}
	return "", false
}
