// Package reconcile implements the inventory reconciliation engine: cooking a recipe
// against the pantry, rolling a meal plan up into a shopping list, and the pantry
// quantity primitives both build on.
//
// Every function takes the owner explicitly and works against a Ledger, which is the
// slice of a store transaction it needs. Callers run each call inside one store.Update
// so all reads and writes of a call commit or roll back together.
package reconcile

import (
	"context"
	"errors"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/store"
)

// Ledger is the subset of store.Tx used by reconciliation.
type Ledger interface {
	GetRecipe(ctx context.Context, id string) (*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, r *domain.Recipe) error
	ListMealPlan(ctx context.Context, ownerID, start, end string) ([]*domain.MealPlanEntry, error)

	GetPantryEntry(ctx context.Context, ownerID, ingredientID string) (*domain.PantryEntry, error)
	CreatePantryEntry(ctx context.Context, e *domain.PantryEntry) error
	UpdatePantryEntry(ctx context.Context, e *domain.PantryEntry) error

	GetShoppingListEntryForIngredient(ctx context.Context, ownerID, ingredientID string) (*domain.ShoppingListEntry, error)
	CreateShoppingListEntry(ctx context.Context, e *domain.ShoppingListEntry) error
	UpdateShoppingListEntry(ctx context.Context, e *domain.ShoppingListEntry) error
}

var _ Ledger = (store.Tx)(nil)

// pantryEntry returns the owner's entry for ingredientID, or nil when there is none.
func pantryEntry(ctx context.Context, l Ledger, ownerID, ingredientID string) (*domain.PantryEntry, error) {
	e, err := l.GetPantryEntry(ctx, ownerID, ingredientID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load pantry entry")
	}
	return e, nil
}

// shoppingEntry returns the owner's shopping list entry for ingredientID, or nil.
func shoppingEntry(ctx context.Context, l Ledger, ownerID, ingredientID string) (*domain.ShoppingListEntry, error) {
	e, err := l.GetShoppingListEntryForIngredient(ctx, ownerID, ingredientID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load shopping list entry")
	}
	return e, nil
}

// quantityOf reads the on-hand amount of a possibly absent entry.
func quantityOf(e *domain.PantryEntry) float64 {
	if e == nil {
		return 0
	}
	return e.Quantity
}
