// Package budget decides whether a provider call may spend money in the
// current environment.
package budget

import (
	"fmt"

	"github.com/stockroom-app/server/internal/core"
)

type Mode string

const (
	// ModeBlock rejects calls that would cross the cap.
	ModeBlock Mode = "block"
	// ModeDegrade allows calls past the cap and only records the overage.
	ModeDegrade Mode = "degrade"
)

// ParseMode defaults to block for anything unrecognised.
func ParseMode(v string) Mode {
	if Mode(v) == ModeDegrade {
		return ModeDegrade
	}
	return ModeBlock
}

// Record is the budget for one environment.
type Record struct {
	MonthlyUSDCap    float64
	ModeOnCapReached Mode
}

// Config is loaded from the environment once per process.
type Config struct {
	EnvironmentOverride string `envconfig:"ASSISTANT_ENVIRONMENT"`

	DevelopmentCapUSD float64 `envconfig:"ASSISTANT_BUDGET_DEVELOPMENT_USD" default:"5"`
	DevelopmentMode   string  `envconfig:"ASSISTANT_BUDGET_DEVELOPMENT_MODE" default:"block"`
	StagingCapUSD     float64 `envconfig:"ASSISTANT_BUDGET_STAGING_USD" default:"20"`
	StagingMode       string  `envconfig:"ASSISTANT_BUDGET_STAGING_MODE" default:"block"`
	ProductionCapUSD  float64 `envconfig:"ASSISTANT_BUDGET_PRODUCTION_USD" default:"100"`
	ProductionMode    string  `envconfig:"ASSISTANT_BUDGET_PRODUCTION_MODE" default:"degrade"`
}

// Policy is an immutable view over Config.
type Policy struct {
	records map[core.Environment]Record
}

func NewPolicy(cfg Config) *Policy {
	return &Policy{records: map[core.Environment]Record{
		core.Development: {MonthlyUSDCap: cfg.DevelopmentCapUSD, ModeOnCapReached: ParseMode(cfg.DevelopmentMode)},
		core.Staging:     {MonthlyUSDCap: cfg.StagingCapUSD, ModeOnCapReached: ParseMode(cfg.StagingMode)},
		core.Production:  {MonthlyUSDCap: cfg.ProductionCapUSD, ModeOnCapReached: ParseMode(cfg.ProductionMode)},
	}}
}

// Resolve returns the record for env. Unknown environments get the
// development record.
func (p *Policy) Resolve(env core.Environment) Record {
	if r, ok := p.records[env]; ok {
		return r
	}
	return p.records[core.Development]
}

const ReasonBudgetExceeded = "budget_exceeded"

type Decision struct {
	Allowed bool
	Reason  string
	// Overage is true when the call is allowed past the cap in degrade mode.
	Overage bool
	Record  Record
}

func (d Decision) String() string {
	if d.Allowed {
		return fmt.Sprintf("allowed (overage=%t)", d.Overage)
	}
	return "denied: " + d.Reason
}

// Evaluate is pure: the same inputs always give the same decision.
func (p *Policy) Evaluate(env core.Environment, estimatedRequestUSD, projectedMonthlyUSD float64) Decision {
	rec := p.Resolve(env)
	over := projectedMonthlyUSD+estimatedRequestUSD > rec.MonthlyUSDCap
	if !over {
		return Decision{Allowed: true, Record: rec}
	}
	if rec.ModeOnCapReached == ModeDegrade {
		return Decision{Allowed: true, Overage: true, Record: rec}
	}
	return Decision{Allowed: false, Reason: ReasonBudgetExceeded, Record: rec}
}
