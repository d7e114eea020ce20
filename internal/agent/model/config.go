package model

import "time"

// ================ Config ================
type GeminiConfig struct {
	APIKey      string        `envconfig:"GEMINI_API_KEY"`
	BaseURL     string        `envconfig:"GEMINI_BASE_URL"`
	Model       string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int32         `envconfig:"GEMINI_MAX_TOKENS" default:"1024"`
	Temperature float32       `envconfig:"GEMINI_TEMPERATURE" default:"0.2"`
	Timeout     time.Duration `envconfig:"GEMINI_TIMEOUT" default:"20s"`
}

// Configured reports whether the provider-backed path can be used.
func (c GeminiConfig) Configured() bool {
	return c.APIKey != ""
}

type AssistantConfig struct {
	Enabled        bool          `envconfig:"ASSISTANT_ENABLED" default:"true"`
	MaxSteps       int           `envconfig:"ASSISTANT_MAX_STEPS" default:"4"`
	RequestTimeout time.Duration `envconfig:"ASSISTANT_REQUEST_TIMEOUT" default:"45s"`
	// EstimatedRequestUSD is the spend assumed for one question before it runs.
	EstimatedRequestUSD float64 `envconfig:"ASSISTANT_ESTIMATED_REQUEST_USD" default:"0.002"`
	Heuristic           HeuristicConfig
}

// HeuristicConfig holds the per-workspace low stock thresholds. Personal and
// business households use different cut-offs.
type HeuristicConfig struct {
	PersonalLowStockThreshold float64 `envconfig:"HEURISTIC_PERSONAL_LOW_STOCK_THRESHOLD" default:"1"`
	BusinessLowStockThreshold float64 `envconfig:"HEURISTIC_BUSINESS_LOW_STOCK_THRESHOLD" default:"5"`
	ExpiryWindowDays          int     `envconfig:"HEURISTIC_EXPIRY_WINDOW_DAYS" default:"7"`
}
