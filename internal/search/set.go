package search

import (
	"strings"

	"github.com/Aman-CERP/pantry/internal/recipe"
)

// IngredientSet is the set of normalized ingredient terms selected for a
// search. Terms keep their insertion order for display; order carries no
// meaning for correctness except that the first term drives fallback.
//
// An IngredientSet is not safe for concurrent use.
type IngredientSet struct {
	terms []string
	index map[string]struct{}
}

// NewIngredientSet returns a set seeded with terms. Blank and duplicate
// terms are skipped.
func NewIngredientSet(terms ...string) *IngredientSet {
	s := &IngredientSet{index: make(map[string]struct{})}
	for _, t := range terms {
		s.Add(t)
	}
	return s
}

// ParseTerms splits comma-separated user input into a set.
func ParseTerms(raw string) *IngredientSet {
	return NewIngredientSet(strings.Split(raw, ",")...)
}

// Add normalizes and inserts term. It reports false when the term is blank
// or already present, in which case the set is unchanged.
func (s *IngredientSet) Add(term string) bool {
	n := recipe.NormalizeTerm(term)
	if n == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[n]; ok {
		return false
	}
	s.index[n] = struct{}{}
	s.terms = append(s.terms, n)
	return true
}

// Remove deletes term. It reports whether the term was present.
func (s *IngredientSet) Remove(term string) bool {
	n := recipe.NormalizeTerm(term)
	if _, ok := s.index[n]; !ok {
		return false
	}
	delete(s.index, n)
	for i, t := range s.terms {
		if t == n {
			s.terms = append(s.terms[:i], s.terms[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the set.
func (s *IngredientSet) Clear() {
	s.terms = nil
	s.index = make(map[string]struct{})
}

// Contains reports whether the normalized term is in the set.
func (s *IngredientSet) Contains(term string) bool {
	_, ok := s.index[recipe.NormalizeTerm(term)]
	return ok
}

// Len returns the number of terms.
func (s *IngredientSet) Len() int {
	return len(s.terms)
}

// Terms returns a copy of the terms in insertion order.
func (s *IngredientSet) Terms() []string {
	out := make([]string, len(s.terms))
	copy(out, s.terms)
	return out
}

// String renders the set as "a, b, c".
func (s *IngredientSet) String() string {
	return strings.Join(s.terms, ", ")
}
