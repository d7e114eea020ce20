package cmd

import (
	"context"
	"fmt"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	"github.com/stockroom-app/server/internal/agent"
	"github.com/stockroom-app/server/internal/agent/budget"
	"github.com/stockroom-app/server/internal/agent/heuristic"
	"github.com/stockroom-app/server/internal/agent/loop"
	"github.com/stockroom-app/server/internal/agent/observers"
	"github.com/stockroom-app/server/internal/agent/policy"
	"github.com/stockroom-app/server/internal/agent/tools"
	"github.com/stockroom-app/server/internal/config"
	"github.com/stockroom-app/server/internal/inventory"
	logx "github.com/stockroom-app/server/pkg/logger"
)

// newService assembles the assistant pipeline over store. The provider path
// is only built when a Gemini key is configured.
func newService(ctx context.Context, cfg *config.AppConfig, store inventory.Store, ledger budget.Ledger) (*agent.Service, error) {
	env := cfg.ResolveEnvironment()
	hcfg := cfg.Assistant.Heuristic

	opts := agent.ServiceOptions{
		Store: store,
		Heuristic: heuristic.NewAssistant(heuristic.Options{
			Store:  store,
			Config: hcfg,
		}),
		Budget:      budget.NewPolicy(cfg.Budget),
		Ledger:      ledger,
		Environment: env,
		Config:      cfg.Assistant,
	}

	if cfg.Gemini.Configured() {
		handlers := []einocb.Handler{observers.NewAllCallbacks()}
		provider, err := loop.NewGeminiProvider(ctx, cfg.Gemini, handlers...)
		if err != nil {
			return nil, fmt.Errorf("init gemini provider: %w", err)
		}
		orchestrator := loop.NewOrchestrator(provider, loop.OrchestratorOptions{
			Temperature: cfg.Gemini.Temperature,
			MaxTokens:   cfg.Gemini.MaxTokens,
			Suggestions: policy.SuggestionRules{
				ItemLowStock:    hcfg.PersonalLowStockThreshold,
				ProductLowStock: hcfg.BusinessLowStockThreshold,
				ExpiryWindow:    time.Duration(hcfg.ExpiryWindowDays) * 24 * time.Hour,
			},
		})
		opts.LLM = loop.NewAssistant(loop.AssistantOptions{
			Store:        store,
			Registry:     tools.NewRegistry(store, handlers...),
			Orchestrator: orchestrator,
			MaxSteps:     cfg.Assistant.MaxSteps,
			Ledger:       ledger,
			Environment:  env,
			Handlers:     handlers,
		})
		logx.Info().Str("model", provider.Model()).Str("environment", env.String()).Msg("assistant provider path enabled")
	} else {
		logx.Info().Str("environment", env.String()).Msg("no provider key configured, assistant runs on the local heuristic")
	}

	return agent.NewService(opts), nil
}
