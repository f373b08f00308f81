package reconcile

import (
	"context"
	"time"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/id"
)

// The shopping list has two merge policies. They are kept as separate functions on
// purpose: cooking and manual adds accumulate, plan generation only guarantees a floor.

// AddToShoppingList adds quantity to the owner's entry for ingredientID, creating the
// entry (AddedAt = now) if there is none.
func AddToShoppingList(ctx context.Context, l Ledger, ownerID, ingredientID string, quantity float64, now time.Time) (*domain.ShoppingListEntry, error) {
	existing, err := shoppingEntry(ctx, l, ownerID, ingredientID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Quantity += quantity
		existing.UpdatedAt = now
		if err := l.UpdateShoppingListEntry(ctx, existing); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update shopping list entry")
		}
		return existing, nil
	}

	return createShoppingEntry(ctx, l, ownerID, ingredientID, quantity, now)
}

// EnsureResult describes what EnsureOnShoppingList did.
type EnsureResult string

// EnsureOnShoppingList outcomes.
const (
	EnsureCreated   EnsureResult = "created"
	EnsureRaised    EnsureResult = "raised"
	EnsureUnchanged EnsureResult = "unchanged"
)

// EnsureOnShoppingList makes sure the owner's entry for ingredientID holds at least
// quantity. An existing entry is overwritten only when it holds strictly less; it is
// never reduced and never added to.
func EnsureOnShoppingList(ctx context.Context, l Ledger, ownerID, ingredientID string, quantity float64, now time.Time) (*domain.ShoppingListEntry, EnsureResult, error) {
	existing, err := shoppingEntry(ctx, l, ownerID, ingredientID)
	if err != nil {
		return nil, "", err
	}

	if existing == nil {
		e, err := createShoppingEntry(ctx, l, ownerID, ingredientID, quantity, now)
		if err != nil {
			return nil, "", err
		}
		return e, EnsureCreated, nil
	}

	if existing.Quantity >= quantity {
		return existing, EnsureUnchanged, nil
	}

	existing.Quantity = quantity
	existing.UpdatedAt = now
	if err := l.UpdateShoppingListEntry(ctx, existing); err != nil {
		return nil, "", domainerrors.Wrap(err, domainerrors.CodeInternal, "update shopping list entry")
	}
	return existing, EnsureRaised, nil
}

func createShoppingEntry(ctx context.Context, l Ledger, ownerID, ingredientID string, quantity float64, now time.Time) (*domain.ShoppingListEntry, error) {
	entryID, err := id.Generate(id.PrefixShopping)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate shopping list id")
	}
	e := &domain.ShoppingListEntry{
		AddedAt:      now,
		UpdatedAt:    now,
		ID:           entryID,
		OwnerID:      ownerID,
		IngredientID: ingredientID,
		Quantity:     quantity,
	}
	if err := l.CreateShoppingListEntry(ctx, e); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create shopping list entry")
	}
	return e, nil
}
