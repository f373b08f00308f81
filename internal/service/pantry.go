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

// PantryService exposes the caller's pantry and the two quantity primitives.
type PantryService struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewPantryService creates a new pantry service. m may be nil.
func NewPantryService(store store.Store, m *metrics.Metrics, logger *slog.Logger) *PantryService {
	return &PantryService{
		store:   store,
		metrics: m,
		logger:  loggerOrDefault(logger),
		now:     time.Now,
	}
}

// PantryItem is a pantry entry joined with its ingredient, which is nil when the
// definition no longer exists.
type PantryItem struct {
	Entry      *domain.PantryEntry
	Ingredient *domain.Ingredient
}

// List returns the caller's pantry.
func (s *PantryService) List(ctx context.Context, userID string) ([]*PantryItem, error) {
	var items []*PantryItem
	err := s.store.View(ctx, func(tx store.Tx) error {
		entries, err := tx.ListPantry(ctx, userID)
		if err != nil {
			return err
		}

		resolver := newIngredientResolver(tx, userID)
		items = make([]*PantryItem, 0, len(entries))
		for _, e := range entries {
			ing, err := resolver.resolve(ctx, e.IngredientID)
			if err != nil {
				return err
			}
			items = append(items, &PantryItem{Entry: e, Ingredient: ing})
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "pantry")
	}
	return items, nil
}

// SetQuantity overwrites the amount on hand, creating the entry if needed. The quantity
// is stored as given.
func (s *PantryService) SetQuantity(ctx context.Context, userID, ingredientID string, quantity float64) (*domain.PantryEntry, error) {
	var entry *domain.PantryEntry
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		entry, err = reconcile.SetQuantity(ctx, tx, userID, ingredientID, quantity, s.now())
		return err
	})
	if err != nil {
		return nil, translate(err, "pantry entry")
	}

	s.metrics.RecordPantryWrite("set")
	s.logger.Debug("pantry quantity set",
		"user_id", userID,
		"ingredient_id", ingredientID,
		"quantity", quantity,
	)
	return entry, nil
}

// AdjustQuantity adds delta to the amount on hand, never going below zero. It returns a
// nil entry when no entry exists and delta is not positive.
func (s *PantryService) AdjustQuantity(ctx context.Context, userID, ingredientID string, delta float64) (*domain.PantryEntry, error) {
	var entry *domain.PantryEntry
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		entry, err = reconcile.AdjustQuantity(ctx, tx, userID, ingredientID, delta, s.now())
		return err
	})
	if err != nil {
		return nil, translate(err, "pantry entry")
	}

	if entry != nil {
		s.metrics.RecordPantryWrite("adjust")
	}
	return entry, nil
}
