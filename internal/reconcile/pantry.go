package reconcile

import (
	"context"
	"math"
	"time"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/id"
)

// SetQuantity upserts the owner's pantry entry for ingredientID to quantity.
// The value is stored as given; range checks belong to the caller.
func SetQuantity(ctx context.Context, l Ledger, ownerID, ingredientID string, quantity float64, now time.Time) (*domain.PantryEntry, error) {
	existing, err := pantryEntry(ctx, l, ownerID, ingredientID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Quantity = quantity
		existing.UpdatedAt = now
		if err := l.UpdatePantryEntry(ctx, existing); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update pantry entry")
		}
		return existing, nil
	}

	return createPantryEntry(ctx, l, ownerID, ingredientID, quantity, now)
}

// AdjustQuantity applies delta to the owner's pantry entry, flooring the result at zero.
// With no existing entry a positive delta creates one; a zero or negative delta is a
// no-op and returns a nil entry.
func AdjustQuantity(ctx context.Context, l Ledger, ownerID, ingredientID string, delta float64, now time.Time) (*domain.PantryEntry, error) {
	existing, err := pantryEntry(ctx, l, ownerID, ingredientID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if delta <= 0 {
			return nil, nil
		}
		return createPantryEntry(ctx, l, ownerID, ingredientID, delta, now)
	}

	existing.Quantity = math.Max(0, existing.Quantity+delta)
	existing.UpdatedAt = now
	if err := l.UpdatePantryEntry(ctx, existing); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update pantry entry")
	}
	return existing, nil
}

func createPantryEntry(ctx context.Context, l Ledger, ownerID, ingredientID string, quantity float64, now time.Time) (*domain.PantryEntry, error) {
	entryID, err := id.Generate(id.PrefixPantry)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate pantry id")
	}
	e := &domain.PantryEntry{
		UpdatedAt:    now,
		ID:           entryID,
		OwnerID:      ownerID,
		IngredientID: ingredientID,
		Quantity:     quantity,
	}
	if err := l.CreatePantryEntry(ctx, e); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create pantry entry")
	}
	return e, nil
}
