package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
)

// ErrBulkItem is returned when ES accepts the bulk request but rejects the entry.
var ErrBulkItem = errors.New("bulk item rejected")

// Entry is the envelope every document written to ES shares. LogType lets
// dashboards filter reductions, passes and model calls apart.
type Entry struct {
	LogType   string    `json:"LOGTYPE"`
	Timestamp time.Time `json:"@timestamp"`
	Data      any       `json:"data"`
}

// NewESClient returns nil when no address is configured, which turns every ES
// write into a no-op.
func NewESClient(addresses []string, username, password string) (*elasticsearch.Client, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

// WriteEntry indexes data into index as a single-item bulk request. A nil
// client does nothing.
func WriteEntry(ctx context.Context, client *elasticsearch.Client, index, logType string, data any) error {
	if client == nil {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	action := map[string]map[string]string{"index": {"_index": index}}
	if err := enc.Encode(action); err != nil {
		return fmt.Errorf("encode bulk action: %w", err)
	}
	if err := enc.Encode(Entry{LogType: logType, Timestamp: time.Now(), Data: data}); err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	res, err := esapi.BulkRequest{Body: &buf}.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("send bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk write failed: %s", res.String())
	}

	var reply bulkReply
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		Warnf("[ES] decode bulk response: %v", err)
		return nil
	}
	return reply.firstError()
}

type bulkReply struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int             `json:"status"`
		Error  json.RawMessage `json:"error,omitempty"`
	} `json:"items"`
}

func (r bulkReply) firstError() error {
	if !r.Errors {
		return nil
	}
	for _, item := range r.Items {
		for op, res := range item {
			if len(res.Error) > 0 {
				return fmt.Errorf("%w: %s status=%d: %s", ErrBulkItem, op, res.Status, res.Error)
			}
		}
	}
	return nil
}
