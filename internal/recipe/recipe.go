package recipe

import (
	"strings"
)

// MaxIngredientSlots is the number of ingredient/measure slots an upstream
// recipe record carries.
const MaxIngredientSlots = 20

// Summary is the lightweight form of a recipe returned by filter queries.
type Summary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Detail is a full recipe record.
type Detail struct {
	Summary

	Category     string           `json:"category,omitempty"`
	Area         string           `json:"area,omitempty"`
	Instructions string           `json:"instructions,omitempty"`
	Ingredients  []IngredientLine `json:"ingredients"`
	VideoURL     string           `json:"video_url,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
	SourceURL    string           `json:"source_url,omitempty"`
}

// Steps returns the recipe's instructions split into display steps.
func (d *Detail) Steps() []string {
	return Steps(d.Instructions)
}

// IngredientNames returns the normalized names of every ingredient line,
// skipping lines with an empty name.
func (d *Detail) IngredientNames() []string {
	names := make([]string, 0, len(d.Ingredients))
	for _, line := range d.Ingredients {
		if n := NormalizeTerm(line.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// IngredientLine is one ingredient with its free-text measure.
type IngredientLine struct {
	Name    string `json:"name"`
	Measure string `json:"measure,omitempty"`
}

// String renders the line as "measure name".
func (l IngredientLine) String() string {
	return strings.TrimSpace(strings.TrimSpace(l.Measure) + " " + strings.TrimSpace(l.Name))
}

// Category is a recipe category as listed by the catalogue.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Description  string `json:"description,omitempty"`
}

// NormalizeTerm lowercases and trims an ingredient term. Two terms are equal
// when their normalized forms are equal.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Steps splits free-text instructions on line breaks, trimming each line and
// dropping blank ones.
func Steps(instructions string) []string {
	lines := strings.FieldsFunc(instructions, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	steps := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

// Summaries projects details down to their summaries, preserving order.
func Summaries(details []*Detail) []Summary {
	out := make([]Summary, 0, len(details))
	for _, d := range details {
		if d != nil {
			out = append(out, d.Summary)
		}
	}
	return out
}
