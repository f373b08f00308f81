package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/metrics"
	"github.com/larderapp/larder-server/internal/reconcile"
	"github.com/larderapp/larder-server/internal/store"
)

// ShoppingListService manages the caller's shopping list, including generation from the
// meal plan.
type ShoppingListService struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewShoppingListService creates a new shopping list service. m may be nil.
func NewShoppingListService(store store.Store, m *metrics.Metrics, logger *slog.Logger) *ShoppingListService {
	return &ShoppingListService{
		store:   store,
		metrics: m,
		logger:  loggerOrDefault(logger),
		now:     time.Now,
	}
}

// AddRequest adds an amount of an ingredient to the list.
type AddRequest struct {
	IngredientID string  `json:"ingredient_id" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
}

// ShoppingItem is a shopping list entry joined with its ingredient, nil when unknown.
type ShoppingItem struct {
	Entry      *domain.ShoppingListEntry
	Ingredient *domain.Ingredient
}

// List returns the caller's shopping list in the order items were added.
func (s *ShoppingListService) List(ctx context.Context, userID string) ([]*ShoppingItem, error) {
	var items []*ShoppingItem
	err := s.store.View(ctx, func(tx store.Tx) error {
		entries, err := tx.ListShoppingList(ctx, userID)
		if err != nil {
			return err
		}

		resolver := newIngredientResolver(tx, userID)
		items = make([]*ShoppingItem, 0, len(entries))
		for _, e := range entries {
			ing, err := resolver.resolve(ctx, e.IngredientID)
			if err != nil {
				return err
			}
			items = append(items, &ShoppingItem{Entry: e, Ingredient: ing})
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "shopping list")
	}
	return items, nil
}

// Add puts an ingredient on the list. An existing entry for the ingredient grows by the
// quantity. The ingredient must be one of the caller's definitions.
func (s *ShoppingListService) Add(ctx context.Context, userID string, req AddRequest) (*domain.ShoppingListEntry, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	var entry *domain.ShoppingListEntry
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := ownedIngredient(ctx, tx, userID, req.IngredientID); err != nil {
			return err
		}
		var err error
		entry, err = reconcile.AddToShoppingList(ctx, tx, userID, req.IngredientID, req.Quantity, s.now())
		return err
	})
	if err != nil {
		return nil, translate(err, "shopping list entry")
	}

	s.metrics.RecordShoppingMerge(metrics.PolicyAdditive, "added", 1)
	return entry, nil
}

// Remove deletes one of the caller's shopping list entries.
func (s *ShoppingListService) Remove(ctx context.Context, userID, entryID string) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		entry, err := tx.GetShoppingListEntry(ctx, entryID)
		if err != nil {
			return translate(err, "shopping list entry")
		}
		if err := requireOwner(entry.OwnerID, userID, "shopping list entry"); err != nil {
			return err
		}
		return tx.DeleteShoppingListEntry(ctx, entryID)
	})
	return translate(err, "shopping list entry")
}

// Clear empties the caller's shopping list and returns how many entries were removed.
func (s *ShoppingListService) Clear(ctx context.Context, userID string) (int, error) {
	var removed int
	err := s.store.Update(ctx, func(tx store.Tx) error {
		entries, err := tx.ListShoppingList(ctx, userID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := tx.DeleteShoppingListEntry(ctx, e.ID); err != nil {
				return err
			}
		}
		removed = len(entries)
		return nil
	})
	if err != nil {
		return 0, translate(err, "shopping list")
	}

	s.logger.Info("shopping list cleared", "user_id", userID, "removed", removed)
	return removed, nil
}

// GenerateFromPlan raises the shopping list to cover whatever the pantry lacks for the
// meals planned between start and end inclusive.
func (s *ShoppingListService) GenerateFromPlan(ctx context.Context, userID, start, end string) (*reconcile.PlanSummary, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	var summary *reconcile.PlanSummary
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		summary, err = reconcile.GenerateFromPlan(ctx, tx, userID, start, end, s.now())
		return err
	})
	if err != nil {
		return nil, translate(err, "shopping list")
	}

	s.metrics.RecordPlanGeneration()
	s.metrics.RecordShoppingMerge(metrics.PolicyRaiseTo, "created", summary.Created)
	s.metrics.RecordShoppingMerge(metrics.PolicyRaiseTo, "raised", summary.Raised)
	s.metrics.RecordShoppingMerge(metrics.PolicyRaiseTo, "unchanged", summary.Unchanged)

	s.logger.Info("shopping list generated from plan",
		"user_id", userID,
		"start", start,
		"end", end,
		"planned_meals", summary.PlannedMeals,
		"created", summary.Created,
		"raised", summary.Raised,
	)
	return summary, nil
}
