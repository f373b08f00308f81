package domain

import "time"

// IngredientLine is one ingredient requirement of a recipe. Quantity is per Recipe.Servings.
// Unit is free text as authored; it is not converted.
type IngredientLine struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// CookEvent records one timed cooking session.
type CookEvent struct {
	CookedAt        time.Time `json:"cooked_at"`
	DurationMinutes float64   `json:"duration_minutes"`
}

// Recipe is an owner-scoped recipe. Servings is the baseline every line quantity is
// expressed against. A recipe with a ParentRecipeID is a variation of that parent.
type Recipe struct {
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	LastCookedAt   *time.Time       `json:"last_cooked_at,omitempty"`
	ID             string           `json:"id"`
	OwnerID        string           `json:"owner_id"`
	Title          string           `json:"title"`
	Description    string           `json:"description,omitempty"`
	Instructions   string           `json:"instructions"`
	ParentRecipeID string           `json:"parent_recipe_id,omitempty"`
	Lines          []IngredientLine `json:"lines"`
	History        []CookEvent      `json:"history,omitempty"`
	Servings       float64          `json:"servings"`
}

// IsVariation reports whether the recipe derives from another recipe.
func (r *Recipe) IsVariation() bool {
	return r.ParentRecipeID != ""
}

// RecordCook advances LastCookedAt and, when a positive duration is given, appends a
// history entry.
func (r *Recipe) RecordCook(at time.Time, durationMinutes *float64) {
	if durationMinutes != nil && *durationMinutes > 0 {
		r.History = append(r.History, CookEvent{CookedAt: at, DurationMinutes: *durationMinutes})
	}
	r.LastCookedAt = &at
	r.UpdatedAt = at
}

// ScaleQuantity scales a per-baseServings quantity to targetServings.
// The evaluation order (divide, then multiply) is fixed so results are reproducible.
func ScaleQuantity(quantity, baseServings, targetServings float64) float64 {
	return quantity / baseServings * targetServings
}
