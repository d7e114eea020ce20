package policy

import (
	"fmt"
	"strings"

	"github.com/stockroom-app/server/internal/agent/model"
)

const (
	defaultNoMatchSubject = "that"
	// NoMatchClarifyingQuestion is surfaced with every low-confidence answer.
	NoMatchClarifyingQuestion = "Could you tell me the name you saved it under, or which room it might be in?"
)

// NoMatch is the low-confidence result for questions no tool evidence could
// answer. It states that nothing was found without claiming the item does or
// does not exist.
func NoMatch(queryText string) *model.Result {
	subject := strings.TrimSpace(queryText)
	if subject == "" {
		subject = defaultNoMatchSubject
	} else {
		subject = fmt.Sprintf("%q", subject)
	}
	return Low(
		fmt.Sprintf("I couldn't find anything matching %s in this household's inventory records.", subject),
		NoMatchClarifyingQuestion,
	)
}

// Low builds a low-confidence result with a clarifying question.
func Low(answer, clarifyingQuestion string) *model.Result {
	if clarifyingQuestion == "" {
		clarifyingQuestion = NoMatchClarifyingQuestion
	}
	return &model.Result{
		Answer:             answer,
		Confidence:         model.ConfidenceLow,
		Citations:          []model.Citation{},
		Suggestions:        []model.Suggestion{},
		ClarifyingQuestion: &clarifyingQuestion,
	}
}

// Medium builds a broader-summary result. Citations are optional.
func Medium(answer string, citations []model.Citation) *model.Result {
	return &model.Result{
		Answer:      answer,
		Confidence:  model.ConfidenceMedium,
		Citations:   citations,
		Suggestions: []model.Suggestion{},
	}
}

// Grounded builds a high-confidence result backed by citations.
func Grounded(answer string, citations []model.Citation, suggestions []model.Suggestion) *model.Result {
	return &model.Result{
		Answer:      answer,
		Confidence:  model.ConfidenceHigh,
		Citations:   citations,
		Suggestions: suggestions,
	}
}

// Finalize enforces the grounding invariants on any result leaving the
// assistant: high always carries citations, low always carries a clarifying
// question, and slices are never nil.
func Finalize(r *model.Result) *model.Result {
	if r == nil {
		return NoMatch("")
	}
	out := *r
	if out.Confidence == model.ConfidenceHigh && len(out.Citations) == 0 {
		return NoMatch("")
	}
	if out.Confidence == model.ConfidenceLow && (out.ClarifyingQuestion == nil || *out.ClarifyingQuestion == "") {
		q := NoMatchClarifyingQuestion
		out.ClarifyingQuestion = &q
	}
	if out.Confidence == model.ConfidenceRefuse {
		out.Citations = nil
		out.Suggestions = nil
	}
	if out.Citations == nil {
		out.Citations = []model.Citation{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []model.Suggestion{}
	}
	return &out
}
