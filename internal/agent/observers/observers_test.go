package observers

import (
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	logx "github.com/stockroom-app/server/pkg/logger"
)

func toolCtx(name string, h einocb.Handler) context.Context {
	return einocb.InitCallbacks(context.Background(), &einocb.RunInfo{
		Name:      name,
		Type:      "InvokableTool",
		Component: components.ComponentOfTool,
	}, h)
}

func TestToolCallbacksCountOutcomes(t *testing.T) {
	logx.Disable()
	ok := toolCallsTotal.WithLabelValues("get_low_stock", "ok")
	failed := toolCallsTotal.WithLabelValues("get_low_stock", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	ctx := einocb.OnStart(toolCtx("get_low_stock", NewToolCallbacks()), &tool.CallbackInput{ArgumentsInJSON: `{"threshold":5}`})
	einocb.OnEnd(ctx, &tool.CallbackOutput{Response: `{"found":true}`})

	ctx = einocb.OnStart(toolCtx("get_low_stock", NewToolCallbacks()), &tool.CallbackInput{ArgumentsInJSON: `{}`})
	einocb.OnError(ctx, errors.New("timeout"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestModelCallbacksCountTokens(t *testing.T) {
	logx.Disable()
	const modelName = "gemini-test-model"
	input := llmTokensTotal.WithLabelValues(modelName, "input")
	output := llmTokensTotal.WithLabelValues(modelName, "output")
	calls := llmCallsTotal.WithLabelValues(modelName, "ok")
	inBefore, outBefore, callsBefore := testutil.ToFloat64(input), testutil.ToFloat64(output), testutil.ToFloat64(calls)

	ctx := einocb.InitCallbacks(context.Background(), &einocb.RunInfo{
		Name:      "gemini",
		Type:      "Gemini",
		Component: components.ComponentOfChatModel,
	}, NewAllCallbacks())
	ctx = einocb.OnStart(ctx, &model.CallbackInput{Config: &model.Config{Model: modelName}})
	einocb.OnEnd(ctx, &model.CallbackOutput{
		Config:     &model.Config{Model: modelName},
		TokenUsage: &model.TokenUsage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150},
	})

	assert.Equal(t, callsBefore+1, testutil.ToFloat64(calls))
	assert.Equal(t, inBefore+120, testutil.ToFloat64(input))
	assert.Equal(t, outBefore+30, testutil.ToFloat64(output))
}

func TestRecordHelpers(t *testing.T) {
	answers := answersTotal.WithLabelValues("heuristic", "high")
	failures := failuresTotal.WithLabelValues("budget_exceeded")
	aBefore, fBefore := testutil.ToFloat64(answers), testutil.ToFloat64(failures)

	RecordAnswer("heuristic", "high")
	RecordFailure("budget_exceeded")

	assert.Equal(t, aBefore+1, testutil.ToFloat64(answers))
	assert.Equal(t, fBefore+1, testutil.ToFloat64(failures))
}
