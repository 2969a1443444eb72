package logger

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v7"
)

// ChatCallback logs every chat model invocation made by the summarization chain
// and mirrors the raw callback payloads to ES when a client is set.
type ChatCallback struct {
	Es    *elasticsearch.Client
	Index string
	calls atomic.Int64
}

// Calls reports how many model invocations started.
func (cb *ChatCallback) Calls() int64 {
	return cb.calls.Load()
}

func (cb *ChatCallback) index() string {
	if cb.Index == "" {
		return MetricsIndex
	}
	return cb.Index
}

func (cb *ChatCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if info == nil || info.Component != components.ComponentOfChatModel {
		return ctx
	}
	n := cb.calls.Add(1)
	if in := model.ConvCallbackInput(input); in != nil {
		Debugf("[Chat] #%d %s start, messages=%d", n, runName(info), len(in.Messages))
	}
	if err := WriteEntry(ctx, cb.Es, cb.index(), "callback.start", input); err != nil {
		Warnf("[Chat] ES write failed: %v", err)
	}
	return ctx
}

func (cb *ChatCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	if info == nil || info.Component != components.ComponentOfChatModel {
		return ctx
	}
	if out := model.ConvCallbackOutput(output); out != nil {
		var content int
		if out.Message != nil {
			content = len(out.Message.Content)
		}
		if out.TokenUsage != nil {
			Debugf("[Chat] %s end, content=%d chars, prompt_tokens=%d completion_tokens=%d",
				runName(info), content, out.TokenUsage.PromptTokens, out.TokenUsage.CompletionTokens)
		} else {
			Debugf("[Chat] %s end, content=%d chars", runName(info), content)
		}
	}
	if err := WriteEntry(ctx, cb.Es, cb.index(), "callback.end", output); err != nil {
		Warnf("[Chat] ES write failed: %v", err)
	}
	return ctx
}

func (cb *ChatCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	Errorf("[Chat] %s error: %v", runName(info), err)
	return ctx
}

func (cb *ChatCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return ctx
}

func (cb *ChatCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Errorf("[Chat] stream output panic: %v", r)
			}
		}()
		defer output.Close()

		frames := 0
		for {
			_, err := output.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				Warnf("[Chat] stream read error: %v", err)
				return
			}
			frames++
		}
		Debugf("[Chat] %s stream end, frames=%d", runName(info), frames)
	}()
	return ctx
}

func runName(info *callbacks.RunInfo) string {
	if info == nil || info.Name == "" {
		return "chat"
	}
	return info.Name
}
