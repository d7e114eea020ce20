package model

import (
	"strings"
	"unicode/utf8"
)

// MaxQuestionLength bounds a question in characters.
const MaxQuestionLength = 1500

// Question is one stateless assistant turn.
type Question struct {
	Text        string
	HouseholdID string
	UserID      string
}

// Normalized returns the question with surrounding whitespace removed.
func (q Question) Normalized() Question {
	q.Text = strings.TrimSpace(q.Text)
	q.HouseholdID = strings.TrimSpace(q.HouseholdID)
	return q
}

// TooLong reports whether the text exceeds MaxQuestionLength characters.
func (q Question) TooLong() bool {
	return utf8.RuneCountInString(q.Text) > MaxQuestionLength
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceRefuse Confidence = "refuse"
)

type EntityType string

const (
	EntityItem    EntityType = "item"
	EntityProduct EntityType = "product"
)

// Citation is one grounded inventory fact.
type Citation struct {
	EntityType EntityType `json:"entityType"`
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	RoomID     *string    `json:"roomId"`
	ExpiryDate *string    `json:"expiryDate"`
}

type SuggestionType string

const (
	SuggestRestock  SuggestionType = "restock"
	SuggestReminder SuggestionType = "reminder"
)

// Suggestion is display-only; acting on it is a separate, user-confirmed call.
type Suggestion struct {
	Type     SuggestionType `json:"type"`
	TargetID string         `json:"itemId"`
	Reason   string         `json:"reason"`
}

// Result is the terminal artifact of one question.
type Result struct {
	Answer             string       `json:"answer"`
	Confidence         Confidence   `json:"confidence"`
	Citations          []Citation   `json:"citations"`
	Suggestions        []Suggestion `json:"suggestions"`
	ClarifyingQuestion *string      `json:"clarifyingQuestion"`
}

// Path names the code path that produced a result, for logs and metrics.
type Path string

const (
	PathGuardrail Path = "guardrail"
	PathLLM       Path = "llm"
	PathHeuristic Path = "heuristic"
)
