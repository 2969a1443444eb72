package logger

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// esStub answers like an Elasticsearch 7 node and records every bulk body.
type esStub struct {
	mu     sync.Mutex
	bodies []string
	status int
	reply  string
}

func (s *esStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path != "/_bulk" {
		_, _ = io.WriteString(w, `{"version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`)
		return
	}
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.bodies = append(s.bodies, string(body))
	s.mu.Unlock()
	if s.status != 0 {
		w.WriteHeader(s.status)
	}
	_, _ = io.WriteString(w, s.reply)
}

func (s *esStub) lines(t *testing.T) []string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.bodies, 1)
	var out []string
	sc := bufio.NewScanner(strings.NewReader(s.bodies[0]))
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

func newESStub(t *testing.T, stub *esStub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return srv
}

func TestWriteEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("Should skip without a client", func(t *testing.T) {
		assert.NoError(t, WriteEntry(ctx, nil, "idx", "t", nil))
	})
	t.Run("Should send one action and one entry line", func(t *testing.T) {
		stub := &esStub{reply: `{"errors":false,"items":[{"index":{"status":201}}]}`}
		srv := newESStub(t, stub)
		client, err := NewESClient([]string{srv.URL}, "", "")
		require.NoError(t, err)

		require.NoError(t, WriteEntry(ctx, client, "zero_sum_logs", "pass.end", map[string]int{"iteration": 2}))

		lines := stub.lines(t)
		require.Len(t, lines, 2)
		assert.JSONEq(t, `{"index":{"_index":"zero_sum_logs"}}`, lines[0])

		var entry struct {
			LogType   string         `json:"LOGTYPE"`
			Timestamp string         `json:"@timestamp"`
			Data      map[string]int `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
		assert.Equal(t, "pass.end", entry.LogType)
		assert.NotEmpty(t, entry.Timestamp)
		assert.Equal(t, 2, entry.Data["iteration"])
	})
	t.Run("Should report a rejected item", func(t *testing.T) {
		stub := &esStub{reply: `{"errors":true,"items":[{"index":{"status":400,"error":{"type":"mapper_parsing_exception"}}}]}`}
		srv := newESStub(t, stub)
		client, err := NewESClient([]string{srv.URL}, "", "")
		require.NoError(t, err)

		err = WriteEntry(ctx, client, "idx", "reduce.end", "x")
		require.ErrorIs(t, err, ErrBulkItem)
		assert.Contains(t, err.Error(), "status=400")
		assert.Contains(t, err.Error(), "mapper_parsing_exception")
	})
	t.Run("Should report an HTTP error", func(t *testing.T) {
		stub := &esStub{status: http.StatusBadRequest, reply: `{"error":"bad request"}`}
		srv := newESStub(t, stub)
		client, err := NewESClient([]string{srv.URL}, "", "")
		require.NoError(t, err)

		err = WriteEntry(ctx, client, "idx", "reduce.end", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bulk write failed")
	})
}

func TestMetricsEmit(t *testing.T) {
	stub := &esStub{reply: `{"errors":false,"items":[]}`}
	srv := newESStub(t, stub)
	client, err := NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)

	NewMetrics(client, "").Emit(MetricsEvent{Phase: PhasePass, Iteration: 3, TokensAfter: 90})

	lines := stub.lines(t)
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"index":{"_index":"`+MetricsIndex+`"}}`, lines[0])
	assert.Contains(t, lines[1], `"LOGTYPE":"pass"`)
	assert.Contains(t, lines[1], `"iteration":3`)
	assert.Contains(t, lines[1], `"tokens_after":90`)
}
