package heuristic

import (
	"regexp"
	"strings"
)

type intent int

const (
	intentNone intent = iota
	intentExpiry
	intentOverview
	intentLowStock
	intentStock
)

var (
	expiryPattern   = regexp.MustCompile(`\b(expir\w*|use by|best before|going bad|go bad|spoil\w*|out of date)\b`)
	overviewPattern = regexp.MustCompile(`\b(overview|summary|summari[sz]e|everything|what do (i|we) have|how many items|inventory status)\b`)
	lowStockPattern = regexp.MustCompile(`\b(low stock|low on|running low|running out|run out|almost out|need(s)? restock\w*|restock\w*)\b`)
	stockPattern    = regexp.MustCompile(`\b(stock|on hand|on-hand|how many|how much|quantity|quantities|units?|levels?)\b`)
)

// classify returns the first matching intent. Low stock wins over stock.
func classify(normalized string, business bool) intent {
	switch {
	case business && lowStockPattern.MatchString(normalized):
		return intentLowStock
	case business && stockPattern.MatchString(normalized) && !expiryPattern.MatchString(normalized):
		return intentStock
	case expiryPattern.MatchString(normalized):
		return intentExpiry
	case overviewPattern.MatchString(normalized):
		return intentOverview
	case lowStockPattern.MatchString(normalized):
		return intentLowStock
	default:
		return intentNone
	}
}

var tokenPattern = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)

var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`a an the and or of in on at to for with from by it its this that these those
		do does did i we my our me us you your is are was were be there here have has had got
		any some all what where which who how much many left right now please can could would
		tell show find still where's what's i'm we're stock units unit quantity hand level levels
		item items inventory household home house currently today store stored keep kept`) {
		stopwords[w] = true
	}
}

// keywords extracts the searchable words of a normalized question in order,
// without duplicates.
func keywords(normalized string) []string {
	seen := map[string]bool{}
	var out []string
	for _, tok := range tokenPattern.FindAllString(normalized, -1) {
		tok = strings.TrimSuffix(tok, "'s")
		tok = strings.Trim(tok, "'-")
		if len(tok) < 3 || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// variants returns the keyword plus naive singular forms.
func variants(word string) []string {
	out := []string{word}
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		out = append(out, strings.TrimSuffix(word, "ies")+"y")
	case strings.HasSuffix(word, "es") && len(word) > 4:
		out = append(out, strings.TrimSuffix(word, "es"), strings.TrimSuffix(word, "s"))
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word) > 3:
		out = append(out, strings.TrimSuffix(word, "s"))
	}
	return out
}

// score counts how many keywords appear in any of the fields.
func score(words []string, fields ...string) int {
	n := 0
	for _, w := range words {
		if matchesAny(variants(w), fields) {
			n++
		}
	}
	return n
}

// matchesAny reports whether any needle equals a whole word of a field, or a
// singular form of one. "tea" does not match "Steak".
func matchesAny(needles []string, fields []string) bool {
	for _, f := range fields {
		for _, tok := range fieldTokens(f) {
			for _, v := range variants(tok) {
				for _, n := range needles {
					if n != "" && n == v {
						return true
					}
				}
			}
		}
	}
	return false
}

// fieldTokens splits a record field into lower-cased words. Hyphenated words
// are kept whole and also split into their parts.
func fieldTokens(field string) []string {
	var out []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(field), -1) {
		tok = strings.Trim(strings.TrimSuffix(tok, "'s"), "'-")
		if tok == "" {
			continue
		}
		out = append(out, tok)
		if strings.Contains(tok, "-") {
			for _, part := range strings.Split(tok, "-") {
				if part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}
