package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerosum/pkg/logger"
)

type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.input = input
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.reply, nil)}), nil
}

func TestEinoService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should render title and source into the system prompt", func(t *testing.T) {
		m := &fakeChatModel{reply: "short"}
		cb := &logger.ChatCallback{}
		svc, err := NewEinoService(ctx, m, cb)
		require.NoError(t, err)

		out, err := svc.SummarizeChunk(ctx, "some {braced} chunk text", "My Title", "website")
		require.NoError(t, err)
		assert.Equal(t, "short", out)

		require.Len(t, m.input, 2)
		assert.Equal(t, schema.System, m.input[0].Role)
		assert.Contains(t, m.input[0].Content, `"My Title"`)
		assert.Contains(t, m.input[0].Content, `"website"`)
		assert.Equal(t, schema.User, m.input[1].Role)
		assert.Equal(t, "some {braced} chunk text", m.input[1].Content)
		assert.Equal(t, int64(1), cb.Calls())
	})
	t.Run("Should default an empty source to unknown", func(t *testing.T) {
		m := &fakeChatModel{reply: "short"}
		svc, err := NewEinoService(ctx, m)
		require.NoError(t, err)
		_, err = svc.SummarizeChunk(ctx, "text", "T", "")
		require.NoError(t, err)
		assert.Contains(t, m.input[0].Content, `"unknown"`)
	})
	t.Run("Should report an empty reply", func(t *testing.T) {
		svc, err := NewEinoService(ctx, &fakeChatModel{reply: "  "})
		require.NoError(t, err)
		_, err = svc.SummarizeChunk(ctx, "text", "T", "file")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
	t.Run("Should return model errors", func(t *testing.T) {
		errModel := errors.New("rate limited")
		svc, err := NewEinoService(ctx, &fakeChatModel{err: errModel})
		require.NoError(t, err)
		_, err = svc.SummarizeChunk(ctx, "text", "T", "file")
		assert.ErrorIs(t, err, errModel)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	for _, env := range apiKeyEnv {
		t.Setenv(env, "")
	}

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := New(ctx, Options{Provider: "mistral", APIKey: "k"})
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
	t.Run("Should require an api key", func(t *testing.T) {
		_, err := New(ctx, Options{Provider: ProviderAnthropic, Model: "claude"})
		assert.ErrorIs(t, err, ErrAPIKeyRequired)
	})
	t.Run("Should fall back to the provider env var", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "from-env")
		svc, err := New(ctx, Options{Provider: ProviderAnthropic, Model: "claude"})
		require.NoError(t, err)
		assert.IsType(t, &AnthropicService{}, svc)
	})
	t.Run("Should default to the openai chain", func(t *testing.T) {
		svc, err := New(ctx, Options{Model: "gpt-4o", APIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &EinoService{}, svc)
	})
}

func TestAnthropicService(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"claude summary"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":2}}`))
	}))
	defer srv.Close()

	svc, err := NewAnthropicService("k", "claude-test", srv.URL, 0)
	require.NoError(t, err)
	out, err := svc.SummarizeChunk(context.Background(), "chunk", "Title", "file")
	require.NoError(t, err)
	assert.Equal(t, "claude summary", out)
	assert.Equal(t, "claude-test", got["model"])
	assert.EqualValues(t, defaultAnthropicMaxTokens, got["max_tokens"])
}

func TestGeminiService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"gemini summary"}]}}]}`))
	}))
	defer srv.Close()

	svc, err := NewGeminiService(context.Background(), "k", "gemini-test", srv.URL)
	require.NoError(t, err)
	out, err := svc.SummarizeChunk(context.Background(), "chunk", "Title", "file")
	require.NoError(t, err)
	assert.Equal(t, "gemini summary", out)
}
