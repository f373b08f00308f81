package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/store"
)

// Cook result messages.
const (
	MessageCooked  = "Recipe cooked successfully! Pantry updated."
	MessageMissing = "Some ingredients were missing and added to your shopping list."
)

// LineStatus is the outcome for one ingredient line of a cook.
type LineStatus string

// Line statuses.
const (
	StatusDeducted LineStatus = "deducted"
	StatusMissing  LineStatus = "missing"
)

// CookRequest describes one cooking event.
type CookRequest struct {
	RecipeID string
	// Servings is the number of servings cooked. It is not validated here; zero or
	// negative values scale every line to zero or below.
	Servings float64
	// DurationMinutes, when positive, is appended to the recipe's history.
	DurationMinutes *float64
}

// LineResult reports what happened to one ingredient line.
type LineResult struct {
	IngredientID string     `json:"ingredient_id"`
	Status       LineStatus `json:"status"`
	Needed       float64    `json:"needed"`
	Had          float64    `json:"had"`
	Deficit      float64    `json:"deficit,omitempty"`
}

// CookResult is the outcome of Cook. Success is false when any line was short; that is a
// normal result, not an error.
type CookResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Results []LineResult `json:"results"`
}

// Cook consumes the recipe's ingredients for req.Servings servings from the owner's pantry.
//
// Each line is scaled by quantity / recipe.Servings * req.Servings and processed in order.
// When the pantry holds at least the scaled amount it is deducted. Otherwise the shortfall
// is added to the shopping list, whatever was on hand is consumed (the entry drops to
// zero) and the cook is marked unsuccessful. The recipe's cook history is updated exactly
// once per call.
//
// Cook is not idempotent: every call is a separate cooking event.
func Cook(ctx context.Context, l Ledger, ownerID string, req CookRequest, now time.Time) (*CookResult, error) {
	recipe, err := l.GetRecipe(ctx, req.RecipeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("recipe not found")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load recipe")
	}
	if recipe.OwnerID != ownerID {
		return nil, domainerrors.Forbidden("recipe belongs to another user")
	}
	if recipe.Servings == 0 {
		return nil, domainerrors.Validation("recipe has zero servings")
	}

	recipe.RecordCook(now, req.DurationMinutes)
	if err := l.UpdateRecipe(ctx, recipe); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update recipe history")
	}

	result := &CookResult{
		Success: true,
		Results: make([]LineResult, 0, len(recipe.Lines)),
	}

	for _, line := range recipe.Lines {
		lr, err := cookLine(ctx, l, ownerID, line, recipe.Servings, req.Servings, now)
		if err != nil {
			return nil, err
		}
		if lr.Status == StatusMissing {
			result.Success = false
		}
		result.Results = append(result.Results, lr)
	}

	result.Message = MessageCooked
	if !result.Success {
		result.Message = MessageMissing
	}
	return result, nil
}

func cookLine(ctx context.Context, l Ledger, ownerID string, line domain.IngredientLine, baseServings, targetServings float64, now time.Time) (LineResult, error) {
	needed := domain.ScaleQuantity(line.Quantity, baseServings, targetServings)

	entry, err := pantryEntry(ctx, l, ownerID, line.IngredientID)
	if err != nil {
		return LineResult{}, err
	}
	had := quantityOf(entry)

	if had >= needed {
		// With no entry there is nothing on hand and nothing needed; leave it absent.
		if entry != nil {
			entry.Quantity = had - needed
			entry.UpdatedAt = now
			if err := l.UpdatePantryEntry(ctx, entry); err != nil {
				return LineResult{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "update pantry entry")
			}
		}
		return LineResult{
			IngredientID: line.IngredientID,
			Status:       StatusDeducted,
			Needed:       needed,
			Had:          had,
		}, nil
	}

	deficit := needed - had
	if _, err := AddToShoppingList(ctx, l, ownerID, line.IngredientID, deficit, now); err != nil {
		return LineResult{}, err
	}

	if entry != nil && had > 0 {
		entry.Quantity = 0
		entry.UpdatedAt = now
		if err := l.UpdatePantryEntry(ctx, entry); err != nil {
			return LineResult{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "update pantry entry")
		}
	}

	return LineResult{
		IngredientID: line.IngredientID,
		Status:       StatusMissing,
		Needed:       needed,
		Had:          had,
		Deficit:      deficit,
	}, nil
}
