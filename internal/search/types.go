package search

import (
	"github.com/Aman-CERP/pantry/internal/recipe"
)

// Stage is how far a multi-term search progressed before producing its
// results.
type Stage int

const (
	// StageNone means the search stopped before any candidates were usable.
	StageNone Stage = iota
	// StageDegenerate means a single contributing term was returned unverified.
	StageDegenerate
	// StageFallback means the intersection was empty and the first term's
	// candidates were returned instead.
	StageFallback
	// StageVerified means the intersection was checked against full records.
	StageVerified
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageDegenerate:
		return "degenerate"
	case StageFallback:
		return "fallback"
	case StageVerified:
		return "verified"
	default:
		return "none"
	}
}

// CandidateSet holds one term's filter results keyed by id, along with the
// ids in the order the index returned them.
type CandidateSet struct {
	Term  string
	Order []string
	ByID  map[string]recipe.Summary
}

func newCandidateSet(term string, summaries []recipe.Summary) CandidateSet {
	cs := CandidateSet{
		Term:  term,
		Order: make([]string, 0, len(summaries)),
		ByID:  make(map[string]recipe.Summary, len(summaries)),
	}
	for _, s := range summaries {
		if _, dup := cs.ByID[s.ID]; dup {
			continue
		}
		cs.ByID[s.ID] = s
		cs.Order = append(cs.Order, s.ID)
	}
	return cs
}

// Len returns the number of distinct candidates.
func (c CandidateSet) Len() int {
	return len(c.Order)
}

// Has reports whether id is a candidate.
func (c CandidateSet) Has(id string) bool {
	_, ok := c.ByID[id]
	return ok
}

// Summaries returns the candidates in index order.
func (c CandidateSet) Summaries() []recipe.Summary {
	out := make([]recipe.Summary, 0, len(c.Order))
	for _, id := range c.Order {
		out = append(out, c.ByID[id])
	}
	return out
}

// Outcome is the full trace of a multi-term search. Results is what a
// presenter shows; the other fields expose each stage so that
// Verified ⊆ Intersection ⊆ every Candidates[i] can be checked.
type Outcome struct {
	Terms        []string
	Candidates   []CandidateSet
	Intersection []string
	Verified     []string
	Results      []recipe.Summary
	Stage        Stage
}
