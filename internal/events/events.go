package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Event types published while reducing a document.
const (
	TypeReduceStarted   = "reduce.started"
	TypePassStarted     = "pass.started"
	TypeChunkSummarized = "chunk.summarized"
	TypePassCompleted   = "pass.completed"
	TypeReduceFinished  = "reduce.finished"
	TypeReduceError     = "reduce.error"
)

// Event is the unified event structure sent to consumers (CLI printer, ES, ...).
// Data is a json.RawMessage so consumers can decode it based on Type.
type Event struct {
	Type       string          `json:"type"`
	DocumentID string          `json:"document_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent creates an Event, marshaling data to JSON. If marshaling fails, data is set to null.
func NewEvent(eventType string, documentID string, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("null")
	}
	return Event{
		Type:       eventType,
		DocumentID: documentID,
		Timestamp:  time.Now(),
		Data:       raw,
	}
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

type ReduceStartedData struct {
	Title         string `json:"title"`
	Tokens        int    `json:"tokens"`
	TokenLimit    int    `json:"token_limit"`
	MaxIterations int    `json:"max_iterations"`
}

type PassStartedData struct {
	Iteration       int `json:"iteration"`
	Tokens          int `json:"tokens"`
	Chunks          int `json:"chunks"`
	EstimatedChunks int `json:"estimated_chunks"`
}

type ChunkSummarizedData struct {
	Iteration    int `json:"iteration"`
	Chunk        int `json:"chunk"`
	TotalChunks  int `json:"total_chunks"`
	TokensBefore int `json:"tokens_before"`
	TokensAfter  int `json:"tokens_after"`
}

type PassCompletedData struct {
	Iteration    int   `json:"iteration"`
	TokensBefore int   `json:"tokens_before"`
	TokensAfter  int   `json:"tokens_after"`
	DurationMs   int64 `json:"duration_ms"`
}

type ReduceFinishedData struct {
	Iterations    int    `json:"iterations"`
	InitialTokens int    `json:"initial_tokens"`
	FinalTokens   int    `json:"final_tokens"`
	Termination   string `json:"termination"`
	DurationMs    int64  `json:"duration_ms"`
}

type ErrorData struct {
	Phase     string `json:"phase"`
	Message   string `json:"message"`
	Iteration int    `json:"iteration,omitempty"`
	Chunk     int    `json:"chunk,omitempty"`
}

// Emitter is the interface for publishing events.
type Emitter interface {
	Emit(event Event)
	Subscribe() <-chan Event
	Close()
}

// ChannelEmitter fans events out to buffered subscriber channels.
type ChannelEmitter struct {
	bufSize int
	subs    []chan Event
	mu      sync.RWMutex
	closed  bool
}

// NewChannelEmitter creates an emitter whose subscriber channels hold bufSize events.
func NewChannelEmitter(bufSize int) *ChannelEmitter {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &ChannelEmitter{bufSize: bufSize}
}

// Emit publishes an event to all subscribers. Non-blocking: drops if subscriber is full.
func (e *ChannelEmitter) Emit(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	for _, sub := range e.subs {
		select {
		case sub <- event:
		default:
		}
	}
}

// Subscribe returns a channel that receives all emitted events.
func (e *ChannelEmitter) Subscribe() <-chan Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan Event, e.bufSize)
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Close closes all subscriber channels.
func (e *ChannelEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, sub := range e.subs {
		close(sub)
	}
}

// NopEmitter is a no-op emitter for when event reporting is not needed.
type NopEmitter struct{}

func (NopEmitter) Emit(Event)              {}
func (NopEmitter) Subscribe() <-chan Event { return make(chan Event) }
func (NopEmitter) Close()                  {}
