package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/components/tool"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/stockroom-app/server/pkg/logger"
)

type startedKey struct{}

func markStart(ctx context.Context) context.Context {
	return context.WithValue(ctx, startedKey{}, time.Now())
}

func sinceStart(ctx context.Context) time.Duration {
	t, ok := ctx.Value(startedKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(t)
}

// newToolHandler logs tool lifecycle events and feeds the tool metrics.
func newToolHandler() *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *tool.CallbackInput) context.Context {
			ev := logx.Debug().Str("tool", info.Name)
			if input != nil {
				ev = ev.Str("arguments", input.ArgumentsInJSON)
			}
			ev.Msg("tool start")
			return markStart(ctx)
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *tool.CallbackOutput) context.Context {
			elapsed := sinceStart(ctx)
			toolCallsTotal.WithLabelValues(info.Name, "ok").Inc()
			toolDuration.WithLabelValues(info.Name).Observe(elapsed.Seconds())
			ev := logx.Debug().Str("tool", info.Name).Dur("elapsed", elapsed)
			if output != nil {
				ev = ev.Int("response_bytes", len(output.Response))
			}
			ev.Msg("tool end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			toolCallsTotal.WithLabelValues(info.Name, "error").Inc()
			toolDuration.WithLabelValues(info.Name).Observe(sinceStart(ctx).Seconds())
			logx.Warn().Err(err).Str("tool", info.Name).Msg("tool error")
			return ctx
		},
	}
}

// newPromptHandler logs rendered system prompts at debug level.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output != nil && len(output.Result) > 0 && output.Result[0] != nil {
				logx.Debug().Str("prompt", info.Name).Int("chars", len(output.Result[0].Content)).Msg("prompt rendered")
			}
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("prompt", info.Name).Msg("prompt render failed")
			return ctx
		},
	}
}

// newModelHandler records provider call latency and token usage.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			return markStart(ctx)
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			modelName := info.Name
			if output != nil && output.Config != nil && output.Config.Model != "" {
				modelName = output.Config.Model
			}
			llmCallsTotal.WithLabelValues(modelName, "ok").Inc()
			llmDuration.WithLabelValues(modelName).Observe(sinceStart(ctx).Seconds())
			if output != nil && output.TokenUsage != nil {
				llmTokensTotal.WithLabelValues(modelName, "input").Add(float64(output.TokenUsage.PromptTokens))
				llmTokensTotal.WithLabelValues(modelName, "output").Add(float64(output.TokenUsage.CompletionTokens))
			}
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			llmCallsTotal.WithLabelValues(info.Name, "error").Inc()
			llmDuration.WithLabelValues(info.Name).Observe(sinceStart(ctx).Seconds())
			return ctx
		},
	}
}

// NewToolCallbacks constructs a handler for tool lifecycle events only.
func NewToolCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Tool(newToolHandler()).
		Handler()
}

// NewAllCallbacks aggregates the tool, prompt and model observers into one handler.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Tool(newToolHandler()).
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}
