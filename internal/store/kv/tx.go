package kv

import (
	"context"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/normalize"
	"github.com/larderapp/larder-server/internal/store"
)

// Record prefixes.
const (
	userPrefix       = "user:"
	ingredientPrefix = "ingredient:"
	pantryPrefix     = "pantry:"
	recipePrefix     = "recipe:"
	mealPlanPrefix   = "mealplan:"
	shoppingPrefix   = "shopping:"
)

var (
	users = newEntity(userPrefix, func(u *domain.User) string { return u.ID }).
		withUnique("email", func(u *domain.User) string { return domain.NormalizeEmail(u.Email) })

	ingredients = newEntity(ingredientPrefix, func(i *domain.Ingredient) string { return i.ID }).
			withIndex("owner", func(i *domain.Ingredient) string { return i.OwnerID }).
			withIndex("name", func(i *domain.Ingredient) string { return nameKey(i.OwnerID, i.Name) })

	pantry = newEntity(pantryPrefix, func(e *domain.PantryEntry) string { return e.ID }).
		withUnique("owner_ingredient", func(e *domain.PantryEntry) string { return e.OwnerID + ":" + e.IngredientID }).
		withIndex("owner", func(e *domain.PantryEntry) string { return e.OwnerID })

	recipes = newEntity(recipePrefix, func(r *domain.Recipe) string { return r.ID }).
		withIndex("owner", func(r *domain.Recipe) string { return r.OwnerID }).
		withIndex("parent", func(r *domain.Recipe) string { return r.ParentRecipeID })

	mealPlans = newEntity(mealPlanPrefix, func(e *domain.MealPlanEntry) string { return e.ID }).
			withUnique("slot", func(e *domain.MealPlanEntry) string { return slotKey(e.OwnerID, e.Date, e.MealSlot) }).
			withIndex("owner_date", func(e *domain.MealPlanEntry) string { return e.OwnerID + ":" + e.Date })

	shopping = newEntity(shoppingPrefix, func(e *domain.ShoppingListEntry) string { return e.ID }).
			withUnique("owner_ingredient", func(e *domain.ShoppingListEntry) string { return e.OwnerID + ":" + e.IngredientID }).
			withIndex("owner", func(e *domain.ShoppingListEntry) string { return e.OwnerID })
)

func nameKey(ownerID, name string) string {
	n := normalize.Name(name)
	if n == "" {
		return ""
	}
	return ownerID + ":" + n
}

func slotKey(ownerID, date, slot string) string {
	return ownerID + ":" + date + ":" + slot
}

// tx adapts a Badger transaction to store.Tx.
type tx struct {
	txn *badger.Txn
}

var _ store.Tx = (*tx)(nil)

func (t *tx) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Users

func (t *tx) CreateUser(ctx context.Context, u *domain.User) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return users.create(t.txn, u)
}

func (t *tx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return users.get(t.txn, id)
}

func (t *tx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return users.getByUnique(t.txn, "email", domain.NormalizeEmail(email))
}

// Ingredients

func (t *tx) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return ingredients.create(t.txn, ing)
}

func (t *tx) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return ingredients.get(t.txn, id)
}

func (t *tx) UpdateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return ingredients.update(t.txn, ing)
}

func (t *tx) DeleteIngredient(ctx context.Context, id string) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return ingredients.delete(t.txn, id)
}

func (t *tx) ListIngredients(ctx context.Context, ownerID string) ([]*domain.Ingredient, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	list, err := ingredients.listBy(t.txn, "owner", ownerID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(list, func(a, b *domain.Ingredient) int {
		return strings.Compare(normalize.Name(a.Name), normalize.Name(b.Name))
	})
	return list, nil
}

func (t *tx) FindIngredientsByName(ctx context.Context, ownerID, name string) ([]*domain.Ingredient, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	key := nameKey(ownerID, name)
	if key == "" {
		return nil, nil
	}
	return ingredients.listBy(t.txn, "name", key)
}

// Pantry

func (t *tx) GetPantryEntry(ctx context.Context, ownerID, ingredientID string) (*domain.PantryEntry, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return pantry.getByUnique(t.txn, "owner_ingredient", ownerID+":"+ingredientID)
}

func (t *tx) CreatePantryEntry(ctx context.Context, e *domain.PantryEntry) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return pantry.create(t.txn, e)
}

func (t *tx) UpdatePantryEntry(ctx context.Context, e *domain.PantryEntry) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return pantry.update(t.txn, e)
}

func (t *tx) ListPantry(ctx context.Context, ownerID string) ([]*domain.PantryEntry, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return pantry.listBy(t.txn, "owner", ownerID)
}

// Recipes

func (t *tx) CreateRecipe(ctx context.Context, r *domain.Recipe) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return recipes.create(t.txn, r)
}

func (t *tx) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return recipes.get(t.txn, id)
}

func (t *tx) UpdateRecipe(ctx context.Context, r *domain.Recipe) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return recipes.update(t.txn, r)
}

func (t *tx) DeleteRecipe(ctx context.Context, id string) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return recipes.delete(t.txn, id)
}

func (t *tx) ListRecipes(ctx context.Context, ownerID string) ([]*domain.Recipe, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	list, err := recipes.listBy(t.txn, "owner", ownerID)
	if err != nil {
		return nil, err
	}
	sortRecipes(list)
	return list, nil
}

func (t *tx) ListVariations(ctx context.Context, parentID string) ([]*domain.Recipe, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	if parentID == "" {
		return nil, nil
	}
	list, err := recipes.listBy(t.txn, "parent", parentID)
	if err != nil {
		return nil, err
	}
	sortRecipes(list)
	return list, nil
}

func (t *tx) ListAllRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return recipes.list(t.txn)
}

func sortRecipes(list []*domain.Recipe) {
	slices.SortStableFunc(list, func(a, b *domain.Recipe) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Meal plans

func (t *tx) CreateMealPlanEntry(ctx context.Context, e *domain.MealPlanEntry) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return mealPlans.create(t.txn, e)
}

func (t *tx) GetMealPlanEntry(ctx context.Context, id string) (*domain.MealPlanEntry, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return mealPlans.get(t.txn, id)
}

func (t *tx) UpdateMealPlanEntry(ctx context.Context, e *domain.MealPlanEntry) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return mealPlans.update(t.txn, e)
}

func (t *tx) DeleteMealPlanEntry(ctx context.Context, id string) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return mealPlans.delete(t.txn, id)
}

func (t *tx) GetMealPlanSlot(ctx context.Context, ownerID, date, slot string) (*domain.MealPlanEntry, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return mealPlans.getByUnique(t.txn, "slot", slotKey(ownerID, date, slot))
}

// ListMealPlan walks the owner's entries one date at a time. Range lengths are bounded
// by the API, so per-day prefix scans stay cheap.
func (t *tx) ListMealPlan(ctx context.Context, ownerID, start, end string) ([]*domain.MealPlanEntry, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	from, err := domain.ParseDate(start)
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}
	to, err := domain.ParseDate(end)
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	var out []*domain.MealPlanEntry
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day, err := mealPlans.listBy(t.txn, "owner_date", ownerID+":"+d.Format(domain.DateLayout))
		if err != nil {
			return nil, err
		}
		out = append(out, day...)
	}
	slices.SortStableFunc(out, domain.CompareMealPlanEntries)
	return out, nil
}

// Shopping list

func (t *tx) GetShoppingListEntry(ctx context.Context, id string) (*domain.ShoppingListEntry, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return shopping.get(t.txn, id)
}

func (t *tx) GetShoppingListEntryForIngredient(ctx context.Context, ownerID, ingredientID string) (*domain.ShoppingListEntry, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return shopping.getByUnique(t.txn, "owner_ingredient", ownerID+":"+ingredientID)
}

func (t *tx) CreateShoppingListEntry(ctx context.Context, e *domain.ShoppingListEntry) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return shopping.create(t.txn, e)
}

func (t *tx) UpdateShoppingListEntry(ctx context.Context, e *domain.ShoppingListEntry) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return shopping.update(t.txn, e)
}

func (t *tx) DeleteShoppingListEntry(ctx context.Context, id string) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return shopping.delete(t.txn, id)
}

func (t *tx) ListShoppingList(ctx context.Context, ownerID string) ([]*domain.ShoppingListEntry, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	list, err := shopping.listBy(t.txn, "owner", ownerID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(list, func(a, b *domain.ShoppingListEntry) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return list, nil
}
