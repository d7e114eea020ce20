// Package agent is the inventory assistant: it validates a question, applies
// the guardrail and budget policies, and picks the provider-backed or the
// heuristic answerer.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stockroom-app/server/internal/agent/budget"
	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/agent/observers"
	"github.com/stockroom-app/server/internal/agent/policy"
	"github.com/stockroom-app/server/internal/core"
	errx "github.com/stockroom-app/server/internal/core/error"
	"github.com/stockroom-app/server/internal/inventory"
	logx "github.com/stockroom-app/server/pkg/logger"
)

// Answerer answers one question. A nil result with a nil error means the
// answerer could not produce an answer and the caller may fall back.
type Answerer interface {
	Answer(ctx context.Context, q model.Question) (*model.Result, error)
}

type ServiceOptions struct {
	Store inventory.Store
	// LLM is nil when no provider key is configured.
	LLM         Answerer
	Heuristic   Answerer
	Budget      *budget.Policy
	Ledger      budget.Ledger
	Environment core.Environment
	Config      model.AssistantConfig
}

type Service struct {
	store       inventory.Store
	llm         Answerer
	heuristic   Answerer
	budget      *budget.Policy
	ledger      budget.Ledger
	environment core.Environment
	cfg         model.AssistantConfig
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		store:       opts.Store,
		llm:         opts.LLM,
		heuristic:   opts.Heuristic,
		budget:      opts.Budget,
		ledger:      opts.Ledger,
		environment: opts.Environment,
		cfg:         opts.Config,
	}
}

// Ask runs the full pipeline for one question. Refusals and low-confidence
// answers are results, not errors.
func (s *Service) Ask(ctx context.Context, q model.Question) (*model.Result, error) {
	started := time.Now()
	res, path, err := s.ask(ctx, q.Normalized())
	if err != nil {
		code := errx.CodeOf(err)
		observers.RecordFailure(string(code))
		logx.Warn().Err(err).Str("household_id", q.HouseholdID).Str("code", string(code)).Msg("assistant request failed")
		return nil, err
	}

	res = policy.Finalize(res)
	observers.RecordAnswer(string(path), string(res.Confidence))
	logx.Info().
		Str("household_id", q.HouseholdID).
		Str("path", string(path)).
		Str("confidence", string(res.Confidence)).
		Int("citations", len(res.Citations)).
		Dur("elapsed", time.Since(started)).
		Msg("assistant answered")
	return res, nil
}

func (s *Service) ask(ctx context.Context, q model.Question) (*model.Result, model.Path, error) {
	if q.UserID == "" {
		return nil, "", errx.New(errx.Unauthenticated, "sign in to use the assistant", nil)
	}
	if q.HouseholdID == "" {
		return nil, "", errx.InvalidInputf("householdId is required")
	}
	if q.Text == "" {
		return nil, "", errx.InvalidInputf("question is required")
	}
	if q.TooLong() {
		return nil, "", errx.InvalidInputf("question must be at most %d characters", model.MaxQuestionLength)
	}
	// Provider-backed households are keyed by UUID; reject other ids before
	// they reach the data layer.
	if s.llm != nil {
		if _, err := uuid.Parse(q.HouseholdID); err != nil {
			return nil, "", errx.InvalidInputf("householdId must be a valid UUID")
		}
	}

	member, err := s.store.IsMember(ctx, q.UserID, q.HouseholdID)
	if err != nil {
		return nil, "", errx.WrapFetch(err, "failed to verify household membership")
	}
	if !member {
		return nil, "", errx.New(errx.ForbiddenHousehold, "you are not a member of this household", nil)
	}

	if policy.ShouldRefuse(policy.NormalizeQuestion(q.Text)) {
		return policy.Refusal(), model.PathGuardrail, nil
	}

	if !s.cfg.Enabled {
		return nil, "", errx.New(errx.Disabled, "the assistant is disabled", nil)
	}

	if s.llm == nil {
		res, err := s.heuristic.Answer(ctx, q)
		return res, model.PathHeuristic, err
	}

	if err := s.checkBudget(ctx); err != nil {
		return nil, "", err
	}

	res, err := s.llm.Answer(ctx, q)
	if err != nil {
		return nil, "", err
	}
	if res != nil {
		return res, model.PathLLM, nil
	}

	logx.Info().Str("household_id", q.HouseholdID).Msg("assistant loop produced no answer, using heuristic")
	res, err = s.heuristic.Answer(ctx, q)
	return res, model.PathHeuristic, err
}

// checkBudget evaluates the policy against the month-to-date spend. A ledger
// read failure fails closed in block mode and counts as zero in degrade mode.
func (s *Service) checkBudget(ctx context.Context) error {
	if s.budget == nil {
		return nil
	}
	env := s.environment.String()
	record := s.budget.Resolve(s.environment)

	var spent float64
	if s.ledger != nil {
		v, err := s.ledger.MonthToDate(ctx, s.environment)
		if err != nil {
			if record.ModeOnCapReached == budget.ModeBlock {
				return errx.WrapFetch(err, "failed to read assistant spend")
			}
			logx.Warn().Err(err).Str("environment", env).Msg("spend ledger unavailable, assuming zero spend")
		} else {
			spent = v
		}
	}

	decision := s.budget.Evaluate(s.environment, s.cfg.EstimatedRequestUSD, spent)
	switch {
	case !decision.Allowed:
		observers.RecordBudgetDecision(env, "blocked")
		logx.Warn().
			Str("environment", env).
			Float64("month_to_date_usd", spent).
			Float64("cap_usd", decision.Record.MonthlyUSDCap).
			Msg("assistant budget exceeded")
		return errx.New(errx.BudgetExceeded, "the assistant has reached its monthly budget, try again later", nil)
	case decision.Overage:
		observers.RecordBudgetDecision(env, "overage")
		logx.Warn().
			Str("environment", env).
			Float64("month_to_date_usd", spent).
			Float64("cap_usd", decision.Record.MonthlyUSDCap).
			Msg("assistant budget cap passed, continuing in degrade mode")
	default:
		observers.RecordBudgetDecision(env, "allowed")
	}
	return nil
}
