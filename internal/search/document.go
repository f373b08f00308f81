// Package search provides full-text recipe search using Bleve.
// Every query is scoped to one owner; matching uses English stemming, fuzzy
// matching for typos and prefix matching for search-as-you-type.
package search

import (
	"strings"

	"github.com/larderapp/larder-server/internal/domain"
)

// RecipeDocument is the indexed form of a recipe. Ingredient names are denormalized
// into the document so "basil" finds every recipe that uses basil.
type RecipeDocument struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"owner_id"`
	ParentID     string   `json:"parent_id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`

	CreatedAt int64 `json:"created_at"` // Unix millis
}

// NewRecipeDocument builds the index document for r. ingredientNames holds the
// resolved names of the recipe's lines; unresolved lines are simply absent.
func NewRecipeDocument(r *domain.Recipe, ingredientNames []string) *RecipeDocument {
	return &RecipeDocument{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		ParentID:     r.ParentRecipeID,
		Title:        r.Title,
		Description:  r.Description,
		Instructions: r.Instructions,
		Ingredients:  ingredientNames,
		CreatedAt:    r.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *RecipeDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"title":      d.Title,
		"title_sort": strings.ToLower(d.Title),
		"created_at": d.CreatedAt,
		// Roots get an explicit marker so they can be filtered with a term query.
		"is_variation": "false",
	}
	if d.ParentID != "" {
		m["parent_id"] = d.ParentID
		m["is_variation"] = "true"
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Instructions != "" {
		m["instructions"] = d.Instructions
	}
	if len(d.Ingredients) > 0 {
		m["ingredients"] = d.Ingredients
	}
	return m
}
