package loop

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/agent/policy"
	"github.com/stockroom-app/server/internal/agent/tools"
	errx "github.com/stockroom-app/server/internal/core/error"
	logx "github.com/stockroom-app/server/pkg/logger"
)

const DefaultMaxSteps = 4

// normalizeMaxSteps returns a sane default when the provided value is invalid.
func normalizeMaxSteps(n int) int {
	if n <= 0 {
		return DefaultMaxSteps
	}
	return n
}

const (
	roleUser  = "user"
	roleModel = "model"
)

type RunInput struct {
	Question          string
	SystemInstruction string
	Registry          *tools.Registry
	MaxSteps          int
}

// RunStats accumulates what one run cost, whatever its outcome.
type RunStats struct {
	Steps     int
	ToolCalls []model.ToolName
	Usage     model.Usage
	CostUSD   float64
}

type OrchestratorOptions struct {
	Temperature float32
	MaxTokens   int32
	Suggestions policy.SuggestionRules
}

// Orchestrator drives the bounded tool-calling exchange with a provider.
type Orchestrator struct {
	provider    Provider
	pricing     model.Pricing
	temperature float32
	maxTokens   int32
	suggestions policy.SuggestionRules
}

func NewOrchestrator(provider Provider, opts OrchestratorOptions) *Orchestrator {
	return &Orchestrator{
		provider:    provider,
		pricing:     model.ResolvePricing(provider.Model()),
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		suggestions: opts.Suggestions,
	}
}

// Run answers one question. A nil result with a nil error means the assistant
// is unavailable for this question: the provider named an unknown tool or the
// step bound was reached.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (*model.Result, error) {
	res, _, err := o.Execute(ctx, in)
	return res, err
}

// Execute is Run that also reports token usage and cost.
func (o *Orchestrator) Execute(ctx context.Context, in RunInput) (*model.Result, RunStats, error) {
	var stats RunStats
	if in.Registry == nil {
		return nil, stats, fmt.Errorf("orchestrator: nil tool registry")
	}
	maxSteps := normalizeMaxSteps(in.MaxSteps)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: in.SystemInstruction}}},
		Tools:             []*genai.Tool{in.Registry.GenaiTool()},
		Temperature:       genai.Ptr(o.temperature),
	}
	if o.maxTokens > 0 {
		cfg.MaxOutputTokens = o.maxTokens
	}

	contents := []*genai.Content{{
		Role:  roleUser,
		Parts: []*genai.Part{{Text: in.Question}},
	}}
	var evidence []model.Citation
	var lastQueryText string

	for step := 0; step < maxSteps; step++ {
		stats.Steps = step + 1

		resp, err := o.provider.GenerateContent(ctx, contents, cfg)
		if err != nil {
			logx.Error().Err(err).Int("step", step).Msg("provider call failed")
			return nil, stats, errx.WrapProvider(err)
		}
		o.account(&stats, resp, step)

		cand, err := checkResponse(resp)
		if err != nil {
			logx.Warn().Err(err).Int("step", step).Msg("provider response rejected")
			return nil, stats, errx.WrapProvider(err)
		}
		var parts []*genai.Part
		if cand.Content != nil {
			parts = cand.Content.Parts
		}

		if call := functionCallPart(parts); call != nil {
			name, ok := in.Registry.Lookup(call.FunctionCall.Name)
			if !ok {
				logx.Warn().Str("tool", call.FunctionCall.Name).Int("step", step).Msg("provider requested an unregistered tool")
				return nil, stats, nil
			}
			stats.ToolCalls = append(stats.ToolCalls, name)

			res, err := in.Registry.Invoke(ctx, name, call.FunctionCall.Args)
			if err != nil {
				return nil, stats, err
			}

			contents = append(contents,
				&genai.Content{Role: roleModel, Parts: []*genai.Part{call}},
				&genai.Content{Role: roleUser, Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       call.FunctionCall.ID,
						Name:     call.FunctionCall.Name,
						Response: res.ToolResponse,
					},
				}}},
			)
			if len(res.Citations) > 0 {
				evidence = res.Citations
			}
			if res.LastQueryText != "" {
				lastQueryText = res.LastQueryText
			}
			logx.Debug().Int("step", step).Str("tool", string(name)).Int("citations", len(res.Citations)).Msg("tool call appended")
			continue
		}

		if len(evidence) == 0 {
			return policy.NoMatch(lastQueryText), stats, nil
		}
		answer := responseText(parts)
		if answer == "" {
			answer = summarize(evidence)
		}
		return policy.Grounded(answer, evidence, o.suggestions.Build(evidence)), stats, nil
	}

	logx.Warn().Int("max_steps", maxSteps).Msg("tool loop exhausted without an answer")
	return nil, stats, nil
}

func (o *Orchestrator) account(stats *RunStats, resp *genai.GenerateContentResponse, step int) {
	if resp == nil {
		return
	}
	u := model.UsageFrom(resp.UsageMetadata)
	inC, outC, totalC := model.ComputeCost(u, o.pricing)
	stats.Usage = stats.Usage.Add(u)
	stats.CostUSD += totalC

	logx.Debug().
		Int("step", step).
		Str("model", o.provider.Model()).
		Int("input_tokens", u.PromptTokens).
		Int("output_tokens", u.CompletionTokens).
		Int("total_tokens", u.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", stats.CostUSD).
		Msg("provider usage")
}

// functionCallPart returns the first function-call part as the same object the
// provider returned, so opaque fields such as the thought signature survive.
func functionCallPart(parts []*genai.Part) *genai.Part {
	for _, p := range parts {
		if p != nil && p.FunctionCall != nil {
			return p
		}
	}
	return nil
}

func responseText(parts []*genai.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

func summarize(evidence []model.Citation) string {
	names := make([]string, 0, len(evidence))
	for _, c := range evidence {
		names = append(names, fmt.Sprintf("%s (%s)", c.Name, policy.FormatQuantity(c)))
	}
	return "Here is what I found: " + strings.Join(names, ", ") + "."
}
