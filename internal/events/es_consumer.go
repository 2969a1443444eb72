package events

import (
	"context"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/elastic/go-elasticsearch/v7"

	"zerosum/pkg/logger"
)

// ESConsumer reads events from an Emitter and writes them to Elasticsearch.
type ESConsumer struct {
	es    *elasticsearch.Client
	index string
}

// NewESConsumer creates a consumer that forwards events to ES.
func NewESConsumer(es *elasticsearch.Client, index string) *ESConsumer {
	if index == "" {
		index = "zero_sum_events"
	}
	return &ESConsumer{es: es, index: index}
}

// Start consumes the emitter on a pooled goroutine and returns immediately.
// The returned channel is closed once the emitter is closed and drained.
func (c *ESConsumer) Start(emitter Emitter) <-chan struct{} {
	ch := emitter.Subscribe()
	done := make(chan struct{})
	gopool.Go(func() {
		defer close(done)
		for evt := range ch {
			if err := logger.WriteEntry(context.Background(), c.es, c.index, evt.Type, evt); err != nil {
				logger.Warnf("[ESConsumer] failed to write event (type=%s): %v", evt.Type, err)
			}
		}
	})
	return done
}
