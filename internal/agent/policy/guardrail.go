package policy

import (
	"regexp"
	"strings"

	"github.com/stockroom-app/server/internal/agent/model"
)

// RefusalAnswer is the fixed answer for guarded questions.
const RefusalAnswer = "I can only look up information in your own household's inventory. " +
	"I can't delete or remove items, place orders or purchases, or look at other households."

var (
	// Word-level only: "in what order did stock arrive" is refused too, and
	// that false positive is accepted.
	destructiveOrPurchasePattern = regexp.MustCompile(
		`\b(delet(e|es|ed|ing)|remov(e|es|ed|ing)|destr(oy|oys|oyed|oying)|wip(e|es|ed|ing)|` +
			`buy(s|ing)?|bought|purchas(e|es|ed|ing)|(re)?order(s|ed|ing)?|check ?out)\b`)
	crossHouseholdPattern = regexp.MustCompile(
		`\b(other|another|different) (household|user)s?\b|\bsomeone else\b`)
)

// NormalizeQuestion lower-cases the text and collapses whitespace so the
// patterns see one canonical form.
func NormalizeQuestion(text string) string {
	text = strings.ToLower(text)
	text = strings.NewReplacer("’", "'", "‘", "'").Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// ShouldRefuse reports whether the question asks for a destructive or
// purchasing action, or reaches into another household. Conservative by intent.
func ShouldRefuse(normalizedQuestion string) bool {
	return destructiveOrPurchasePattern.MatchString(normalizedQuestion) ||
		crossHouseholdPattern.MatchString(normalizedQuestion)
}

// Refusal is the result returned when ShouldRefuse matches.
func Refusal() *model.Result {
	return &model.Result{
		Answer:      RefusalAnswer,
		Confidence:  model.ConfidenceRefuse,
		Citations:   []model.Citation{},
		Suggestions: []model.Suggestion{},
	}
}
