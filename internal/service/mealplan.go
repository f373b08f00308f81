package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/id"
	"github.com/larderapp/larder-server/internal/store"
)

// MealPlanService manages the caller's (date, slot) recipe assignments.
type MealPlanService struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewMealPlanService creates a new meal plan service.
func NewMealPlanService(store store.Store, logger *slog.Logger) *MealPlanService {
	return &MealPlanService{
		store:  store,
		logger: loggerOrDefault(logger),
		now:    time.Now,
	}
}

// AssignRequest puts a recipe in a meal slot.
type AssignRequest struct {
	Date     string `json:"date" validate:"required,isodate"`
	MealSlot string `json:"meal_slot" validate:"required,max=32"`
	RecipeID string `json:"recipe_id" validate:"required"`
}

// PlanItem is a meal plan entry joined with its recipe, nil when the recipe is gone.
type PlanItem struct {
	Entry  *domain.MealPlanEntry
	Recipe *domain.Recipe
}

// NormalizeSlot lowercases and trims a slot label so "Dinner " and "dinner" are one slot.
func NormalizeSlot(slot string) string {
	return strings.ToLower(strings.TrimSpace(slot))
}

// ListRange returns the caller's plan between start and end inclusive, ordered by date
// then slot.
func (s *MealPlanService) ListRange(ctx context.Context, userID, start, end string) ([]*PlanItem, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	var items []*PlanItem
	err := s.store.View(ctx, func(tx store.Tx) error {
		entries, err := tx.ListMealPlan(ctx, userID, start, end)
		if err != nil {
			return err
		}

		recipes := make(map[string]*domain.Recipe)
		items = make([]*PlanItem, 0, len(entries))
		for _, e := range entries {
			recipe, ok := recipes[e.RecipeID]
			if !ok {
				recipe, err = tx.GetRecipe(ctx, e.RecipeID)
				switch {
				case store.IsNotFound(err):
					recipe = nil
				case err != nil:
					return err
				case recipe.OwnerID != userID:
					recipe = nil
				}
				recipes[e.RecipeID] = recipe
			}
			items = append(items, &PlanItem{Entry: e, Recipe: recipe})
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "meal plan")
	}
	return items, nil
}

// Assign puts a recipe in a (date, slot). An occupied slot gets the new recipe; the last
// assignment wins.
func (s *MealPlanService) Assign(ctx context.Context, userID string, req AssignRequest) (*domain.MealPlanEntry, error) {
	req.MealSlot = NormalizeSlot(req.MealSlot)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	var entry *domain.MealPlanEntry
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := ownedRecipe(ctx, tx, userID, req.RecipeID); err != nil {
			return err
		}

		now := s.now()
		existing, err := tx.GetMealPlanSlot(ctx, userID, req.Date, req.MealSlot)
		if err == nil {
			existing.RecipeID = req.RecipeID
			existing.UpdatedAt = now
			entry = existing
			return tx.UpdateMealPlanEntry(ctx, existing)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		entryID, err := id.Generate(id.PrefixMealPlan)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "generate meal plan id")
		}
		entry = &domain.MealPlanEntry{
			CreatedAt: now,
			UpdatedAt: now,
			ID:        entryID,
			OwnerID:   userID,
			RecipeID:  req.RecipeID,
			Date:      req.Date,
			MealSlot:  req.MealSlot,
		}
		return tx.CreateMealPlanEntry(ctx, entry)
	})
	if err != nil {
		return nil, translate(err, "meal plan entry")
	}

	s.logger.Debug("meal planned",
		"user_id", userID,
		"date", entry.Date,
		"meal_slot", entry.MealSlot,
		"recipe_id", entry.RecipeID,
	)
	return entry, nil
}

// Remove deletes one of the caller's meal plan entries.
func (s *MealPlanService) Remove(ctx context.Context, userID, entryID string) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		entry, err := tx.GetMealPlanEntry(ctx, entryID)
		if err != nil {
			return translate(err, "meal plan entry")
		}
		if err := requireOwner(entry.OwnerID, userID, "meal plan entry"); err != nil {
			return err
		}
		return tx.DeleteMealPlanEntry(ctx, entryID)
	})
	return translate(err, "meal plan entry")
}
