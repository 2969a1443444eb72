package logger

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
)

const (
	MetricsIndex = "zero_sum_logs"

	PhaseReduce = "reduce"
	PhasePass   = "pass"

	// LogType values, used to filter documents in ES.
	LTReduceStart  = "reduce.start"
	LTReduceEnd    = "reduce.end"
	LTReduceError  = "reduce.error"
	LTPassEnd      = "pass.end"
	LTChunkSummary = "pass.chunk"
)

// MetricsEvent is the document written to ES for each reported event.
type MetricsEvent struct {
	Timestamp    time.Time   `json:"@timestamp"`
	LogType      string      `json:"log_type"`
	Phase        string      `json:"phase"`
	DocumentID   string      `json:"document_id,omitempty"`
	Title        string      `json:"title,omitempty"`
	Iteration    int         `json:"iteration,omitempty"`
	Chunk        int         `json:"chunk,omitempty"`
	TotalChunks  int         `json:"total_chunks,omitempty"`
	TokensBefore int         `json:"tokens_before,omitempty"`
	TokensAfter  int         `json:"tokens_after,omitempty"`
	DurationMs   int64       `json:"duration_ms,omitempty"`
	Error        string      `json:"error,omitempty"`
	Detail       interface{} `json:"detail,omitempty"`
}

// Metrics reports events to ES. A nil Metrics or a nil client skips every call.
type Metrics struct {
	es    *elasticsearch.Client
	index string
}

func NewMetrics(es *elasticsearch.Client, index string) *Metrics {
	if index == "" {
		index = MetricsIndex
	}
	return &Metrics{es: es, index: index}
}

// Emit reports one event. Failures are logged and never block the caller.
func (m *Metrics) Emit(evt MetricsEvent) {
	if m == nil || m.es == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	logType := evt.LogType
	if logType == "" {
		logType = evt.Phase
	}
	if err := WriteEntry(context.Background(), m.es, m.index, logType, evt); err != nil {
		Warnf("[Metrics] ES write failed (log_type=%s): %v", logType, err)
		return
	}
	Debugf("[Metrics] ES write ok: log_type=%s", logType)
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ElapsedMs() int64 {
	return time.Since(t.start).Milliseconds()
}
