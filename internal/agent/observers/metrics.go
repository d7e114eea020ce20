package observers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stockroom_assistant"

var (
	answersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Assistant answers by producing path and confidence",
		},
		[]string{"path", "confidence"},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Assistant requests that ended in an error response",
		},
		[]string{"code"},
	)

	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool handler invocations",
		},
		[]string{"tool", "status"},
	)

	toolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of tool handler invocations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Provider generateContent calls",
		},
		[]string{"model", "status"},
	)

	llmDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_duration_seconds",
			Help:      "Duration of provider calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"model"},
	)

	llmTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Provider tokens consumed",
		},
		[]string{"model", "direction"},
	)

	spendUSDTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spend_usd_total",
			Help:      "Estimated provider spend in USD",
		},
		[]string{"environment"},
	)

	budgetDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_decisions_total",
			Help:      "Budget evaluations by outcome",
		},
		[]string{"environment", "outcome"},
	)
)

// RecordAnswer counts a successful answer.
func RecordAnswer(path, confidence string) {
	answersTotal.WithLabelValues(path, confidence).Inc()
}

// RecordFailure counts an error response by code.
func RecordFailure(code string) {
	failuresTotal.WithLabelValues(code).Inc()
}

// RecordSpend adds provider spend for an environment.
func RecordSpend(environment string, usd float64) {
	if usd <= 0 {
		return
	}
	spendUSDTotal.WithLabelValues(environment).Add(usd)
}

// RecordBudgetDecision counts one of "allowed", "overage" or "blocked".
func RecordBudgetDecision(environment, outcome string) {
	budgetDecisionsTotal.WithLabelValues(environment, outcome).Inc()
}
