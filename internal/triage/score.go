package triage

import (
	"sort"
	"strings"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// Scoring weights. The final score is min(1.0, sum of components), so
// adding a matching token to either side never lowers a pair's score.
const (
	// weightKeyword is added per distinct item token found in the
	// phase's scope tokens, for at most maxKeywordMatches tokens.
	weightKeyword     = 0.3
	maxKeywordMatches = 3
	// weightGoal is added when the item shares at least one token
	// with the phase goal. Goal text is short, so one shared token
	// is already a signal.
	weightGoal = 0.2
	// weightCategory is added when the item's tag equals the phase's
	// declared category. Contributes nothing when either side has no
	// tag.
	weightCategory = 0.2
)

// Band is a named confidence range governing whether an assignment
// needs confirmation.
type Band string

const (
	BandNone   Band = "none"
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// Band thresholds (closed-open, except High which is closed at the top).
const (
	HighThreshold   = 0.70
	MediumThreshold = 0.40
	LowThreshold    = 0.10
)

// bandEps absorbs float accumulation error at the band boundaries, so
// a pair scoring exactly a threshold lands in the band above it.
const bandEps = 1e-9

// BandFor maps a score to its confidence band.
func BandFor(score float64) Band {
	switch {
	case score >= HighThreshold-bandEps:
		return BandHigh
	case score >= MediumThreshold-bandEps:
		return BandMedium
	case score >= LowThreshold-bandEps:
		return BandLow
	default:
		return BandNone
	}
}

// Score rates how well a backlog item fits a phase, in [0, 1].
// Pure and deterministic: it reads only its arguments.
func Score(item roadmap.BacklogItem, phase *roadmap.PhaseRecord) float64 {
	itemTokens := Tokenize(item.Description)

	scope := map[string]bool{}
	for _, bullet := range phase.Scope {
		for _, t := range Tokenize(bullet) {
			scope[t] = true
		}
	}

	score := 0.0

	matches := 0
	for _, t := range itemTokens {
		if scope[t] {
			matches++
			if matches == maxKeywordMatches {
				break
			}
		}
	}
	score += float64(matches) * weightKeyword

	goal := tokenSet(phase.Goal)
	for _, t := range itemTokens {
		if goal[t] {
			score += weightGoal
			break
		}
	}

	if item.Tag != "" && phase.Category != "" && strings.EqualFold(item.Tag, phase.Category) {
		score += weightCategory
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Candidate is one phase scored against an item.
type Candidate struct {
	Phase roadmap.PhaseNumber `json:"phase"`
	Name  string              `json:"name"`
	Score float64             `json:"score"`
	Band  Band                `json:"band"`
}

// Rank scores an item against every candidate phase and returns the
// candidates ordered best-first: highest score, ties broken by the
// smallest phase number.
func Rank(item roadmap.BacklogItem, phases []*roadmap.PhaseRecord) []Candidate {
	out := make([]Candidate, 0, len(phases))
	for _, p := range phases {
		s := Score(item, p)
		out = append(out, Candidate{Phase: p.Number, Name: p.Name, Score: s, Band: BandFor(s)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Phase < out[j].Phase
	})
	return out
}
