package main

import (
	"fmt"
	"io"

	"github.com/bytedance/gopkg/util/gopool"

	"zerosum/internal/events"
)

// startProgressPrinter writes one line per progress event to w until the
// emitter is closed.
func startProgressPrinter(emitter events.Emitter, w io.Writer) <-chan struct{} {
	ch := emitter.Subscribe()
	done := make(chan struct{})
	gopool.Go(func() {
		defer close(done)
		for evt := range ch {
			if line := formatEvent(evt); line != "" {
				fmt.Fprintln(w, line)
			}
		}
	})
	return done
}

func formatEvent(evt events.Event) string {
	switch evt.Type {
	case events.TypeReduceStarted:
		var d events.ReduceStartedData
		if evt.Decode(&d) == nil {
			return fmt.Sprintf("» %s: %d tokens, target < %d", d.Title, d.Tokens, d.TokenLimit)
		}
	case events.TypePassStarted:
		var d events.PassStartedData
		if evt.Decode(&d) == nil {
			return fmt.Sprintf("  pass %d: %d tokens in %d chunks", d.Iteration, d.Tokens, d.Chunks)
		}
	case events.TypeChunkSummarized:
		var d events.ChunkSummarizedData
		if evt.Decode(&d) == nil {
			return fmt.Sprintf("    chunk %d/%d: %d -> %d", d.Chunk, d.TotalChunks, d.TokensBefore, d.TokensAfter)
		}
	case events.TypePassCompleted:
		var d events.PassCompletedData
		if evt.Decode(&d) == nil {
			return fmt.Sprintf("  pass %d done: %d -> %d tokens (%dms)", d.Iteration, d.TokensBefore, d.TokensAfter, d.DurationMs)
		}
	case events.TypeReduceFinished:
		var d events.ReduceFinishedData
		if evt.Decode(&d) == nil {
			return fmt.Sprintf("» %s after %d passes: %d -> %d tokens", d.Termination, d.Iterations, d.InitialTokens, d.FinalTokens)
		}
	case events.TypeReduceError:
		var d events.ErrorData
		if evt.Decode(&d) == nil {
			return fmt.Sprintf("✗ pass %d chunk %d: %s", d.Iteration, d.Chunk, d.Message)
		}
	}
	return ""
}
