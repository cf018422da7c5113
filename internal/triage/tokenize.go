// Package triage scores backlog items against phases and applies
// assignment decisions.
//
// Scoring is deliberately dumb: normalized token overlap with fixed
// weights. It is pure and deterministic, so the same roadmap always
// produces the same recommendations, and anything the scorer is not
// sure about goes through the decision oracle instead of being guessed.
package triage

import "strings"

// stopWords are dropped before any token comparison. The set is fixed:
// changing it changes scores, so treat additions like a format change.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"and": true, "or": true, "but": true,
	"for": true, "to": true, "of": true, "in": true, "on": true,
	"at": true, "by": true, "with": true, "from": true, "into": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
	"as": true, "so": true, "up": true, "out": true,
}

// Tokenize normalizes free text to lowercase word tokens: punctuation
// stripped (hyphens inside words survive, so "first-run" is one token),
// stop words dropped, duplicates removed preserving first-seen order.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	var tokens []string
	seen := map[string]bool{}
	var cur strings.Builder

	flush := func() {
		word := strings.Trim(cur.String(), "-")
		cur.Reset()
		if word == "" || stopWords[word] || seen[word] {
			return
		}
		seen[word] = true
		tokens = append(tokens, word)
	}

	for _, r := range lower {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			cur.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// tokenSet returns the tokens of text as a membership set.
func tokenSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, t := range Tokenize(text) {
		set[t] = true
	}
	return set
}
