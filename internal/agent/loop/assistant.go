package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	"github.com/stockroom-app/server/internal/agent/budget"
	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/agent/observers"
	"github.com/stockroom-app/server/internal/agent/prompts"
	"github.com/stockroom-app/server/internal/agent/tools"
	"github.com/stockroom-app/server/internal/core"
	errx "github.com/stockroom-app/server/internal/core/error"
	"github.com/stockroom-app/server/internal/inventory"
	logx "github.com/stockroom-app/server/pkg/logger"
)

type AssistantOptions struct {
	Store        inventory.Store
	Registry     *tools.Registry
	Orchestrator *Orchestrator
	MaxSteps     int
	// Ledger receives the cost of every run, answered or not.
	Ledger      budget.Ledger
	Environment core.Environment
	Handlers    []einocb.Handler
	Now         func() time.Time
}

// Assistant answers questions through the provider tool loop.
type Assistant struct {
	store        inventory.Store
	registry     *tools.Registry
	orchestrator *Orchestrator
	maxSteps     int
	ledger       budget.Ledger
	environment  core.Environment
	handlers     []einocb.Handler
	now          func() time.Time
}

func NewAssistant(opts AssistantOptions) *Assistant {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Assistant{
		store:        opts.Store,
		registry:     opts.Registry,
		orchestrator: opts.Orchestrator,
		maxSteps:     normalizeMaxSteps(opts.MaxSteps),
		ledger:       opts.Ledger,
		environment:  opts.Environment,
		handlers:     opts.Handlers,
		now:          now,
	}
}

// Answer returns (nil, nil) when the loop ends without an answer.
func (a *Assistant) Answer(ctx context.Context, q model.Question) (*model.Result, error) {
	wt, err := a.store.WorkspaceType(ctx, q.HouseholdID)
	if err != nil && !errors.Is(err, inventory.ErrNotFound) {
		return nil, errx.WrapFetch(err, "failed to load household")
	}

	system, err := prompts.RenderSystem(ctx, prompts.SystemVars{WorkspaceType: wt, Now: a.now()}, a.handlers...)
	if err != nil {
		return nil, fmt.Errorf("render system instruction: %w", err)
	}

	res, stats, err := a.orchestrator.Execute(tools.WithHouseholdID(ctx, q.HouseholdID), RunInput{
		Question:          q.Text,
		SystemInstruction: system,
		Registry:          a.registry,
		MaxSteps:          a.maxSteps,
	})
	a.recordSpend(ctx, q, stats)
	return res, err
}

func (a *Assistant) recordSpend(ctx context.Context, q model.Question, stats RunStats) {
	logx.Info().
		Str("household_id", q.HouseholdID).
		Int("steps", stats.Steps).
		Int("tool_calls", len(stats.ToolCalls)).
		Int("total_tokens", stats.Usage.TotalTokens).
		Float64("total_cost_usd", stats.CostUSD).
		Msg("assistant run finished")

	if stats.CostUSD <= 0 {
		return
	}
	observers.RecordSpend(a.environment.String(), stats.CostUSD)
	if a.ledger == nil {
		return
	}
	// Spend is recorded even if the request context was cancelled mid-run.
	if err := a.ledger.Add(context.WithoutCancel(ctx), a.environment, stats.CostUSD); err != nil {
		logx.Error().Err(err).Str("environment", a.environment.String()).Msg("failed to record assistant spend")
	}
}
