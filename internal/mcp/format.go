package mcp

import (
	"fmt"
	"strings"
)

// FormatSearchResults renders search_recipes output as markdown.
func FormatSearchResults(out SearchRecipesOutput) string {
	var sb strings.Builder
	title := "Recipes"
	if len(out.Terms) > 0 {
		title = fmt.Sprintf("Recipes with %s", strings.Join(out.Terms, ", "))
	}
	fmt.Fprintf(&sb, "## %s\n\n", title)

	if out.Warning != "" {
		fmt.Fprintf(&sb, "> %s\n\n", out.Warning)
	}

	if len(out.Results) == 0 {
		sb.WriteString("No recipes found.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Found %d recipe", len(out.Results))
	if len(out.Results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range out.Results {
		fmt.Fprintf(&sb, "%d. **%s** (id `%s`)", i+1, r.Name, r.ID)
		if r.Favorited {
			sb.WriteString(" ♥")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatRecipe renders a recipe as markdown.
func FormatRecipe(d RecipeDetailOutput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", d.Name)

	var meta []string
	if d.Category != "" {
		meta = append(meta, "**Category:** "+d.Category)
	}
	if d.Area != "" {
		meta = append(meta, "**Cuisine:** "+d.Area)
	}
	if d.Favorited {
		meta = append(meta, "**Favorite:** yes")
	}
	meta = append(meta, fmt.Sprintf("**ID:** `%s`", d.ID))
	sb.WriteString(strings.Join(meta, " | "))
	sb.WriteString("\n\n### Ingredients\n\n")
	for _, line := range d.Ingredients {
		fmt.Fprintf(&sb, "- %s\n", strings.TrimSpace(line.Measure+" "+line.Name))
	}

	if len(d.Steps) > 0 {
		sb.WriteString("\n### Steps\n\n")
		for i, step := range d.Steps {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
		}
	}

	if d.VideoURL != "" {
		fmt.Fprintf(&sb, "\n**Video:** %s\n", d.VideoURL)
	}
	if d.SourceURL != "" {
		fmt.Fprintf(&sb, "**Source:** %s\n", d.SourceURL)
	}
	return sb.String()
}

// FormatFavorites renders the favorites list as markdown.
func FormatFavorites(ids []string) string {
	if len(ids) == 0 {
		return "No favorites yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Favorites (%d)\n\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(&sb, "- `%s`\n", id)
	}
	return sb.String()
}
