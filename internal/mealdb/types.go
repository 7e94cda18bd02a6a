package mealdb

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/pantry/internal/recipe"
)

// mealsResponse is the envelope every meal endpoint returns. The upstream
// sends "meals": null when nothing matches.
type mealsResponse struct {
	Meals []rawMeal `json:"meals"`
}

// rawMeal is one meal object. Every field is a string or null, and the
// ingredient slots are numbered strIngredient1..20 / strMeasure1..20, so the
// record is decoded as a flat map.
type rawMeal map[string]*string

func (m rawMeal) get(key string) string {
	if v, ok := m[key]; ok && v != nil {
		return strings.TrimSpace(*v)
	}
	return ""
}

func (m rawMeal) summary() recipe.Summary {
	return recipe.Summary{
		ID:           m.get("idMeal"),
		Name:         m.get("strMeal"),
		ThumbnailURL: m.get("strMealThumb"),
	}
}

func (m rawMeal) detail() *recipe.Detail {
	d := &recipe.Detail{
		Summary:      m.summary(),
		Category:     m.get("strCategory"),
		Area:         m.get("strArea"),
		Instructions: m.get("strInstructions"),
		VideoURL:     m.get("strYoutube"),
		SourceURL:    m.get("strSource"),
		Ingredients:  make([]recipe.IngredientLine, 0, recipe.MaxIngredientSlots),
	}

	for i := 1; i <= recipe.MaxIngredientSlots; i++ {
		name := m.get(fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		d.Ingredients = append(d.Ingredients, recipe.IngredientLine{
			Name:    name,
			Measure: m.get(fmt.Sprintf("strMeasure%d", i)),
		})
	}

	if tags := m.get("strTags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				d.Tags = append(d.Tags, t)
			}
		}
	}

	return d
}

type categoriesResponse struct {
	Categories []rawCategory `json:"categories"`
}

type rawCategory struct {
	ID          string `json:"idCategory"`
	Name        string `json:"strCategory"`
	Thumb       string `json:"strCategoryThumb"`
	Description string `json:"strCategoryDescription"`
}

func (c rawCategory) category() recipe.Category {
	return recipe.Category{
		ID:           c.ID,
		Name:         c.Name,
		ThumbnailURL: c.Thumb,
		Description:  strings.TrimSpace(c.Description),
	}
}
