package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/id"
	"github.com/larderapp/larder-server/internal/normalize"
	"github.com/larderapp/larder-server/internal/store"
)

// IngredientService manages owner-scoped ingredient definitions.
type IngredientService struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(store store.Store, logger *slog.Logger) *IngredientService {
	return &IngredientService{
		store:  store,
		logger: loggerOrDefault(logger),
		now:    time.Now,
	}
}

// IngredientRequest creates or replaces an ingredient definition.
type IngredientRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	DefaultUnit domain.Unit `json:"default_unit" validate:"required,unit"`
}

func (r *IngredientRequest) normalize() error {
	r.Name = normalize.DisplayName(r.Name)
	if err := validate.Validate(r); err != nil {
		return err
	}
	if normalize.Name(r.Name) == "" {
		return domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"name": "must contain a letter or digit"})
	}
	return nil
}

// Create adds an ingredient to the caller's catalog. Names need not be unique.
func (s *IngredientService) Create(ctx context.Context, userID string, req IngredientRequest) (*domain.Ingredient, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	ingID, err := id.Generate(id.PrefixIngredient)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate ingredient id")
	}

	now := s.now()
	ing := &domain.Ingredient{
		CreatedAt:   now,
		UpdatedAt:   now,
		ID:          ingID,
		OwnerID:     userID,
		Name:        req.Name,
		DefaultUnit: req.DefaultUnit,
	}

	if err := s.store.Update(ctx, func(tx store.Tx) error {
		return tx.CreateIngredient(ctx, ing)
	}); err != nil {
		return nil, translate(err, "ingredient")
	}

	s.logger.Debug("ingredient created", "ingredient_id", ing.ID, "user_id", userID)
	return ing, nil
}

// Get returns one of the caller's ingredients.
func (s *IngredientService) Get(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error) {
	var ing *domain.Ingredient
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		ing, err = ownedIngredient(ctx, tx, userID, ingredientID)
		return err
	})
	if err != nil {
		return nil, translate(err, "ingredient")
	}
	return ing, nil
}

// List returns the caller's catalog ordered by name. A non-empty name restricts the
// result to definitions whose normalized name matches.
func (s *IngredientService) List(ctx context.Context, userID, name string) ([]*domain.Ingredient, error) {
	var out []*domain.Ingredient
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		if name != "" {
			out, err = tx.FindIngredientsByName(ctx, userID, name)
		} else {
			out, err = tx.ListIngredients(ctx, userID)
		}
		return err
	})
	if err != nil {
		return nil, translate(err, "ingredients")
	}
	return out, nil
}

// Update replaces the name and default unit of one of the caller's ingredients.
func (s *IngredientService) Update(ctx context.Context, userID, ingredientID string, req IngredientRequest) (*domain.Ingredient, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	var ing *domain.Ingredient
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		ing, err = ownedIngredient(ctx, tx, userID, ingredientID)
		if err != nil {
			return err
		}
		ing.Name = req.Name
		ing.DefaultUnit = req.DefaultUnit
		ing.UpdatedAt = s.now()
		return tx.UpdateIngredient(ctx, ing)
	})
	if err != nil {
		return nil, translate(err, "ingredient")
	}
	return ing, nil
}

// Delete removes an ingredient definition. Recipes, pantry entries and shopping list
// entries that reference it are left alone and resolve it as unknown.
func (s *IngredientService) Delete(ctx context.Context, userID, ingredientID string) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := ownedIngredient(ctx, tx, userID, ingredientID); err != nil {
			return err
		}
		return tx.DeleteIngredient(ctx, ingredientID)
	})
	if err != nil {
		return translate(err, "ingredient")
	}

	s.logger.Info("ingredient deleted", "ingredient_id", ingredientID, "user_id", userID)
	return nil
}

func ownedIngredient(ctx context.Context, tx store.Tx, userID, ingredientID string) (*domain.Ingredient, error) {
	ing, err := tx.GetIngredient(ctx, ingredientID)
	if err != nil {
		return nil, translate(err, "ingredient")
	}
	if err := requireOwner(ing.OwnerID, userID, "ingredient"); err != nil {
		return nil, err
	}
	return ing, nil
}

// resolveIngredient looks up a weak ingredient reference. Dangling references and
// ingredients of other owners resolve to nil.
func resolveIngredient(ctx context.Context, tx store.Tx, userID, ingredientID string) (*domain.Ingredient, error) {
	ing, err := tx.GetIngredient(ctx, ingredientID)
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if ing.OwnerID != userID {
		return nil, nil
	}
	return ing, nil
}

// ingredientResolver memoizes resolveIngredient within one unit of work.
type ingredientResolver struct {
	tx     store.Tx
	userID string
	seen   map[string]*domain.Ingredient
}

func newIngredientResolver(tx store.Tx, userID string) *ingredientResolver {
	return &ingredientResolver{tx: tx, userID: userID, seen: make(map[string]*domain.Ingredient)}
}

func (r *ingredientResolver) resolve(ctx context.Context, ingredientID string) (*domain.Ingredient, error) {
	if ing, ok := r.seen[ingredientID]; ok {
		return ing, nil
	}
	ing, err := resolveIngredient(ctx, r.tx, r.userID, ingredientID)
	if err != nil {
		return nil, err
	}
	r.seen[ingredientID] = ing
	return ing, nil
}
