package reconcile

import (
	"context"
	"errors"
	"time"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/store"
)

// PlanSummary reports what GenerateFromPlan did.
type PlanSummary struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	// PlannedMeals is the number of meal plan entries in range.
	PlannedMeals int `json:"planned_meals"`
	// SkippedMeals counts entries whose recipe no longer exists or is not the owner's.
	SkippedMeals int `json:"skipped_meals"`
	// Ingredients is the number of distinct ingredients required.
	Ingredients int `json:"ingredients"`
	Covered     int `json:"covered"`
	Created     int `json:"created"`
	Raised      int `json:"raised"`
	Unchanged   int `json:"unchanged"`
}

// requirement is one ingredient's summed demand across the plan.
type requirement struct {
	ingredientID string
	amount       float64
}

// GenerateFromPlan rolls the owner's meal plan between start and end (inclusive,
// YYYY-MM-DD) up into shopping list entries.
//
// Line quantities are summed as authored, without scaling by servings. Each ingredient's
// total is netted against the pantry; when demand exceeds stock the shopping list entry is
// raised to the shortfall with EnsureOnShoppingList. Covered ingredients leave the list
// untouched. Plan entries whose recipe has been deleted are skipped silently.
func GenerateFromPlan(ctx context.Context, l Ledger, ownerID, start, end string, now time.Time) (*PlanSummary, error) {
	entries, err := l.ListMealPlan(ctx, ownerID, start, end)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list meal plan")
	}

	summary := &PlanSummary{
		StartDate:    start,
		EndDate:      end,
		PlannedMeals: len(entries),
	}

	// First-seen order keeps writes deterministic.
	var required []requirement
	index := make(map[string]int)

	for _, entry := range entries {
		recipe, err := l.GetRecipe(ctx, entry.RecipeID)
		if errors.Is(err, store.ErrNotFound) {
			summary.SkippedMeals++
			continue
		}
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load planned recipe")
		}
		if recipe.OwnerID != ownerID {
			summary.SkippedMeals++
			continue
		}

		for _, line := range recipe.Lines {
			i, ok := index[line.IngredientID]
			if !ok {
				i = len(required)
				index[line.IngredientID] = i
				required = append(required, requirement{ingredientID: line.IngredientID})
			}
			required[i].amount += line.Quantity
		}
	}
	summary.Ingredients = len(required)

	for _, req := range required {
		entry, err := pantryEntry(ctx, l, ownerID, req.ingredientID)
		if err != nil {
			return nil, err
		}

		missing := req.amount - quantityOf(entry)
		if missing <= 0 {
			summary.Covered++
			continue
		}

		_, outcome, err := EnsureOnShoppingList(ctx, l, ownerID, req.ingredientID, missing, now)
		if err != nil {
			return nil, err
		}
		switch outcome {
		case EnsureCreated:
			summary.Created++
		case EnsureRaised:
			summary.Raised++
		case EnsureUnchanged:
			summary.Unchanged++
		}
	}

	return summary, nil
}
