package reconcile

import (
	"context"
	"slices"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/store"
)

// memLedger is an in-memory Ledger that enforces the same uniqueness rules as the real
// stores and hands out copies so callers cannot mutate state without writing it back.
type memLedger struct {
	recipes   map[string]*domain.Recipe
	pantry    map[string]*domain.PantryEntry
	shopping  map[string]*domain.ShoppingListEntry
	mealPlans []*domain.MealPlanEntry

	recipeUpdates int
}

var _ Ledger = (*memLedger)(nil)

func newMemLedger() *memLedger {
	return &memLedger{
		recipes:  make(map[string]*domain.Recipe),
		pantry:   make(map[string]*domain.PantryEntry),
		shopping: make(map[string]*domain.ShoppingListEntry),
	}
}

func cloneRecipe(r *domain.Recipe) *domain.Recipe {
	c := *r
	c.Lines = slices.Clone(r.Lines)
	c.History = slices.Clone(r.History)
	return &c
}

func (m *memLedger) GetRecipe(_ context.Context, id string) (*domain.Recipe, error) {
	r, ok := m.recipes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneRecipe(r), nil
}

func (m *memLedger) UpdateRecipe(_ context.Context, r *domain.Recipe) error {
	if _, ok := m.recipes[r.ID]; !ok {
		return store.ErrNotFound
	}
	m.recipes[r.ID] = cloneRecipe(r)
	m.recipeUpdates++
	return nil
}

func (m *memLedger) ListMealPlan(_ context.Context, ownerID, start, end string) ([]*domain.MealPlanEntry, error) {
	var out []*domain.MealPlanEntry
	for _, e := range m.mealPlans {
		if e.OwnerID == ownerID && e.Date >= start && e.Date <= end {
			c := *e
			out = append(out, &c)
		}
	}
	slices.SortStableFunc(out, domain.CompareMealPlanEntries)
	return out, nil
}

func (m *memLedger) GetPantryEntry(_ context.Context, ownerID, ingredientID string) (*domain.PantryEntry, error) {
	for _, e := range m.pantry {
		if e.OwnerID == ownerID && e.IngredientID == ingredientID {
			c := *e
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memLedger) CreatePantryEntry(ctx context.Context, e *domain.PantryEntry) error {
	if _, err := m.GetPantryEntry(ctx, e.OwnerID, e.IngredientID); err == nil {
		return store.ErrAlreadyExists
	}
	if _, ok := m.pantry[e.ID]; ok {
		return store.ErrAlreadyExists
	}
	c := *e
	m.pantry[e.ID] = &c
	return nil
}

func (m *memLedger) UpdatePantryEntry(_ context.Context, e *domain.PantryEntry) error {
	if _, ok := m.pantry[e.ID]; !ok {
		return store.ErrNotFound
	}
	c := *e
	m.pantry[e.ID] = &c
	return nil
}

func (m *memLedger) GetShoppingListEntryForIngredient(_ context.Context, ownerID, ingredientID string) (*domain.ShoppingListEntry, error) {
	for _, e := range m.shopping {
		if e.OwnerID == ownerID && e.IngredientID == ingredientID {
			c := *e
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memLedger) CreateShoppingListEntry(ctx context.Context, e *domain.ShoppingListEntry) error {
	if _, err := m.GetShoppingListEntryForIngredient(ctx, e.OwnerID, e.IngredientID); err == nil {
		return store.ErrAlreadyExists
	}
	if _, ok := m.shopping[e.ID]; ok {
		return store.ErrAlreadyExists
	}
	c := *e
	m.shopping[e.ID] = &c
	return nil
}

func (m *memLedger) UpdateShoppingListEntry(_ context.Context, e *domain.ShoppingListEntry) error {
	if _, ok := m.shopping[e.ID]; !ok {
		return store.ErrNotFound
	}
	c := *e
	m.shopping[e.ID] = &c
	return nil
}

// Test helpers.

func (m *memLedger) addRecipe(r *domain.Recipe) {
	m.recipes[r.ID] = cloneRecipe(r)
}

func (m *memLedger) stock(ownerID, ingredientID string, qty float64) {
	id := "pty-" + ownerID + "-" + ingredientID
	m.pantry[id] = &domain.PantryEntry{ID: id, OwnerID: ownerID, IngredientID: ingredientID, Quantity: qty}
}

func (m *memLedger) listShopping(ownerID, ingredientID string) *domain.ShoppingListEntry {
	for _, e := range m.shopping {
		if e.OwnerID == ownerID && e.IngredientID == ingredientID {
			return e
		}
	}
	return nil
}

func (m *memLedger) plan(id, ownerID, recipeID, date, slot string) {
	m.mealPlans = append(m.mealPlans, &domain.MealPlanEntry{
		ID: id, OwnerID: ownerID, RecipeID: recipeID, Date: date, MealSlot: slot,
	})
}

func (m *memLedger) onHand(ownerID, ingredientID string) (float64, bool) {
	for _, e := range m.pantry {
		if e.OwnerID == ownerID && e.IngredientID == ingredientID {
			return e.Quantity, true
		}
	}
	return 0, false
}

func (m *memLedger) shoppingQty(ownerID, ingredientID string) (float64, bool) {
	if e := m.listShopping(ownerID, ingredientID); e != nil {
		return e.Quantity, true
	}
	return 0, false
}
