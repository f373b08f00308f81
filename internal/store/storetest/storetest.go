// Package storetest is a behavioural test suite every store.Store backend must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/store"
)

// Factory opens a fresh, empty store. It should register cleanup on t.
type Factory func(t *testing.T) store.Store

// Run executes the full suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Ingredients", func(t *testing.T) { testIngredients(t, newStore(t)) })
	t.Run("Pantry", func(t *testing.T) { testPantry(t, newStore(t)) })
	t.Run("Recipes", func(t *testing.T) { testRecipes(t, newStore(t)) })
	t.Run("MealPlan", func(t *testing.T) { testMealPlan(t, newStore(t)) })
	t.Run("ShoppingList", func(t *testing.T) { testShoppingList(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("Wipe", func(t *testing.T) { testWipe(t, newStore(t)) })
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func update(t *testing.T, s store.Store, fn func(store.Tx) error) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), fn))
}

func view(t *testing.T, s store.Store, fn func(store.Tx) error) {
	t.Helper()
	require.NoError(t, s.View(context.Background(), fn))
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := &domain.User{
		ID: "usr-1", Email: "Alice@Example.com", DisplayName: "Alice",
		PasswordHash: "$argon2id$fake", CreatedAt: base, UpdatedAt: base,
	}
	update(t, s, func(tx store.Tx) error { return tx.CreateUser(ctx, u) })

	view(t, s, func(tx store.Tx) error {
		got, err := tx.GetUser(ctx, "usr-1")
		require.NoError(t, err)
		assert.Equal(t, "Alice@Example.com", got.Email)
		assert.Equal(t, "Alice", got.DisplayName)
		assert.Equal(t, "$argon2id$fake", got.PasswordHash)
		assert.True(t, got.CreatedAt.Equal(base))

		byEmail, err := tx.GetUserByEmail(ctx, "  alice@EXAMPLE.com ")
		require.NoError(t, err)
		assert.Equal(t, "usr-1", byEmail.ID)

		_, err = tx.GetUser(ctx, "usr-missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = tx.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})

	dup := &domain.User{ID: "usr-2", Email: "alice@example.com", CreatedAt: base, UpdatedAt: base}
	err := s.Update(ctx, func(tx store.Tx) error { return tx.CreateUser(ctx, dup) })
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	sameID := &domain.User{ID: "usr-1", Email: "other@example.com", CreatedAt: base, UpdatedAt: base}
	err = s.Update(ctx, func(tx store.Tx) error { return tx.CreateUser(ctx, sameID) })
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testIngredients(t *testing.T, s store.Store) {
	ctx := context.Background()
	mk := func(id, owner, name string) *domain.Ingredient {
		return &domain.Ingredient{
			ID: id, OwnerID: owner, Name: name, DefaultUnit: domain.UnitGrams,
			CreatedAt: base, UpdatedAt: base,
		}
	}
	update(t, s, func(tx store.Tx) error {
		for _, ing := range []*domain.Ingredient{
			mk("ing-1", "usr-a", "Tomato"),
			mk("ing-2", "usr-a", "basil"),
			mk("ing-3", "usr-a", "tomato"),
			mk("ing-4", "usr-b", "Tomato"),
		} {
			if err := tx.CreateIngredient(ctx, ing); err != nil {
				return err
			}
		}
		return nil
	})

	view(t, s, func(tx store.Tx) error {
		got, err := tx.GetIngredient(ctx, "ing-2")
		require.NoError(t, err)
		assert.Equal(t, "basil", got.Name)
		assert.Equal(t, domain.UnitGrams, got.DefaultUnit)

		list, err := tx.ListIngredients(ctx, "usr-a")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "ing-2", list[0].ID, "sorted by normalized name")

		found, err := tx.FindIngredientsByName(ctx, "usr-a", "  TOMATO ")
		require.NoError(t, err)
		ids := []string{}
		for _, f := range found {
			ids = append(ids, f.ID)
		}
		assert.ElementsMatch(t, []string{"ing-1", "ing-3"}, ids)

		none, err := tx.FindIngredientsByName(ctx, "usr-a", "tomatoes")
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	})

	update(t, s, func(tx store.Tx) error {
		ing, err := tx.GetIngredient(ctx, "ing-2")
		if err != nil {
			return err
		}
		ing.Name = "Thai Basil"
		ing.DefaultUnit = domain.UnitCount
		return tx.UpdateIngredient(ctx, ing)
	})
	view(t, s, func(tx store.Tx) error {
		found, err := tx.FindIngredientsByName(ctx, "usr-a", "thai basil")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, domain.UnitCount, found[0].DefaultUnit)

		old, err := tx.FindIngredientsByName(ctx, "usr-a", "basil")
		require.NoError(t, err)
		assert.Empty(t, old, "old name index removed")
		return nil
	})

	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.UpdateIngredient(ctx, mk("ing-missing", "usr-a", "x"))
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	update(t, s, func(tx store.Tx) error {
		if err := tx.DeleteIngredient(ctx, "ing-1"); err != nil {
			return err
		}
		return tx.DeleteIngredient(ctx, "ing-1")
	})
	view(t, s, func(tx store.Tx) error {
		_, err := tx.GetIngredient(ctx, "ing-1")
		assert.ErrorIs(t, err, store.ErrNotFound)
		list, err := tx.ListIngredients(ctx, "usr-a")
		require.NoError(t, err)
		assert.Len(t, list, 2)
		return nil
	})
}

func testPantry(t *testing.T, s store.Store) {
	ctx := context.Background()
	e := &domain.PantryEntry{ID: "pty-1", OwnerID: "usr-a", IngredientID: "ing-1", Quantity: 500, UpdatedAt: base}
	update(t, s, func(tx store.Tx) error { return tx.CreatePantryEntry(ctx, e) })

	view(t, s, func(tx store.Tx) error {
		got, err := tx.GetPantryEntry(ctx, "usr-a", "ing-1")
		require.NoError(t, err)
		assert.Equal(t, "pty-1", got.ID)
		assert.InDelta(t, 500, got.Quantity, 1e-9)

		_, err = tx.GetPantryEntry(ctx, "usr-b", "ing-1")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})

	dup := &domain.PantryEntry{ID: "pty-2", OwnerID: "usr-a", IngredientID: "ing-1", Quantity: 1, UpdatedAt: base}
	err := s.Update(ctx, func(tx store.Tx) error { return tx.CreatePantryEntry(ctx, dup) })
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	update(t, s, func(tx store.Tx) error {
		got, err := tx.GetPantryEntry(ctx, "usr-a", "ing-1")
		if err != nil {
			return err
		}
		got.Quantity = 0
		return tx.UpdatePantryEntry(ctx, got)
	})
	update(t, s, func(tx store.Tx) error {
		return tx.CreatePantryEntry(ctx, &domain.PantryEntry{
			ID: "pty-3", OwnerID: "usr-a", IngredientID: "ing-2", Quantity: 2, UpdatedAt: base,
		})
	})

	view(t, s, func(tx store.Tx) error {
		got, err := tx.GetPantryEntry(ctx, "usr-a", "ing-1")
		require.NoError(t, err)
		assert.Zero(t, got.Quantity, "zero is a persisted state")

		list, err := tx.ListPantry(ctx, "usr-a")
		require.NoError(t, err)
		assert.Len(t, list, 2)

		other, err := tx.ListPantry(ctx, "usr-b")
		require.NoError(t, err)
		assert.Empty(t, other)
		return nil
	})
}

func testRecipes(t *testing.T, s store.Store) {
	ctx := context.Background()
	cooked := base.Add(time.Hour)
	root := &domain.Recipe{
		ID: "rcp-1", OwnerID: "usr-a", Title: "Soup", Servings: 2,
		Instructions: "Simmer.",
		Lines: []domain.IngredientLine{
			{IngredientID: "ing-1", Quantity: 200, Unit: "grams"},
			{IngredientID: "ing-2", Quantity: 1, Unit: "count"},
		},
		History:      []domain.CookEvent{{CookedAt: cooked, DurationMinutes: 25}},
		LastCookedAt: &cooked,
		CreatedAt:    base, UpdatedAt: base,
	}
	variation := &domain.Recipe{
		ID: "rcp-2", OwnerID: "usr-a", Title: "Spicy Soup", Servings: 2, ParentRecipeID: "rcp-1",
		CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute),
	}
	other := &domain.Recipe{
		ID: "rcp-3", OwnerID: "usr-b", Title: "Bread", Servings: 1,
		CreatedAt: base, UpdatedAt: base,
	}
	update(t, s, func(tx store.Tx) error {
		for _, r := range []*domain.Recipe{root, variation, other} {
			if err := tx.CreateRecipe(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})

	view(t, s, func(tx store.Tx) error {
		got, err := tx.GetRecipe(ctx, "rcp-1")
		require.NoError(t, err)
		assert.Equal(t, "Soup", got.Title)
		assert.Equal(t, "Simmer.", got.Instructions)
		assert.InDelta(t, 2, got.Servings, 1e-9)
		assert.Equal(t, root.Lines, got.Lines)
		require.Len(t, got.History, 1)
		assert.InDelta(t, 25, got.History[0].DurationMinutes, 1e-9)
		require.NotNil(t, got.LastCookedAt)
		assert.True(t, got.LastCookedAt.Equal(cooked))
		assert.False(t, got.IsVariation())

		v, err := tx.GetRecipe(ctx, "rcp-2")
		require.NoError(t, err)
		assert.Equal(t, "rcp-1", v.ParentRecipeID)
		assert.Empty(t, v.Lines)
		assert.Nil(t, v.LastCookedAt)

		mine, err := tx.ListRecipes(ctx, "usr-a")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, "rcp-1", mine[0].ID)

		vars, err := tx.ListVariations(ctx, "rcp-1")
		require.NoError(t, err)
		require.Len(t, vars, 1)
		assert.Equal(t, "rcp-2", vars[0].ID)

		all, err := tx.ListAllRecipes(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		return nil
	})

	update(t, s, func(tx store.Tx) error {
		r, err := tx.GetRecipe(ctx, "rcp-1")
		if err != nil {
			return err
		}
		r.Title = "Tomato Soup"
		r.Lines = r.Lines[:1]
		return tx.UpdateRecipe(ctx, r)
	})
	update(t, s, func(tx store.Tx) error { return tx.DeleteRecipe(ctx, "rcp-1") })

	view(t, s, func(tx store.Tx) error {
		_, err := tx.GetRecipe(ctx, "rcp-1")
		assert.ErrorIs(t, err, store.ErrNotFound)

		v, err := tx.GetRecipe(ctx, "rcp-2")
		require.NoError(t, err)
		assert.Equal(t, "rcp-1", v.ParentRecipeID, "variations keep a dangling parent reference")
		return nil
	})
}

func testMealPlan(t *testing.T, s store.Store) {
	ctx := context.Background()
	mk := func(id, date, slot string) *domain.MealPlanEntry {
		return &domain.MealPlanEntry{
			ID: id, OwnerID: "usr-a", RecipeID: "rcp-1", Date: date, MealSlot: slot,
			CreatedAt: base, UpdatedAt: base,
		}
	}
	update(t, s, func(tx store.Tx) error {
		for _, e := range []*domain.MealPlanEntry{
			mk("mpl-1", "2026-03-02", domain.MealSlotDinner),
			mk("mpl-2", "2026-03-01", domain.MealSlotDinner),
			mk("mpl-3", "2026-03-02", domain.MealSlotBreakfast),
			mk("mpl-4", "2026-03-05", domain.MealSlotLunch),
			mk("mpl-5", "2026-02-28", domain.MealSlotLunch),
		} {
			if err := tx.CreateMealPlanEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})

	view(t, s, func(tx store.Tx) error {
		list, err := tx.ListMealPlan(ctx, "usr-a", "2026-03-01", "2026-03-05")
		require.NoError(t, err)
		var ids []string
		for _, e := range list {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, []string{"mpl-2", "mpl-3", "mpl-1", "mpl-4"}, ids, "inclusive range ordered by date then slot")

		single, err := tx.ListMealPlan(ctx, "usr-a", "2026-03-05", "2026-03-05")
		require.NoError(t, err)
		assert.Len(t, single, 1)

		other, err := tx.ListMealPlan(ctx, "usr-b", "2026-01-01", "2026-12-31")
		require.NoError(t, err)
		assert.Empty(t, other)

		slot, err := tx.GetMealPlanSlot(ctx, "usr-a", "2026-03-02", domain.MealSlotBreakfast)
		require.NoError(t, err)
		assert.Equal(t, "mpl-3", slot.ID)

		_, err = tx.GetMealPlanSlot(ctx, "usr-a", "2026-03-02", domain.MealSlotLunch)
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})

	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.CreateMealPlanEntry(ctx, mk("mpl-9", "2026-03-02", domain.MealSlotDinner))
	})
	assert.ErrorIs(t, err, store.ErrAlreadyExists, "one entry per owner, date and slot")

	update(t, s, func(tx store.Tx) error {
		e, err := tx.GetMealPlanEntry(ctx, "mpl-1")
		if err != nil {
			return err
		}
		e.MealSlot = domain.MealSlotLunch
		e.RecipeID = "rcp-2"
		return tx.UpdateMealPlanEntry(ctx, e)
	})
	update(t, s, func(tx store.Tx) error { return tx.DeleteMealPlanEntry(ctx, "mpl-2") })

	view(t, s, func(tx store.Tx) error {
		_, err := tx.GetMealPlanSlot(ctx, "usr-a", "2026-03-02", domain.MealSlotDinner)
		assert.ErrorIs(t, err, store.ErrNotFound, "old slot freed")

		moved, err := tx.GetMealPlanSlot(ctx, "usr-a", "2026-03-02", domain.MealSlotLunch)
		require.NoError(t, err)
		assert.Equal(t, "rcp-2", moved.RecipeID)

		_, err = tx.GetMealPlanEntry(ctx, "mpl-2")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
}

func testShoppingList(t *testing.T, s store.Store) {
	ctx := context.Background()
	mk := func(id, ing string, added time.Time, qty float64) *domain.ShoppingListEntry {
		return &domain.ShoppingListEntry{
			ID: id, OwnerID: "usr-a", IngredientID: ing, Quantity: qty,
			AddedAt: added, UpdatedAt: added,
		}
	}
	update(t, s, func(tx store.Tx) error {
		for _, e := range []*domain.ShoppingListEntry{
			mk("shp-3", "ing-3", base.Add(2*time.Second), 3),
			mk("shp-1", "ing-1", base, 1),
			mk("shp-2", "ing-2", base.Add(time.Second+500*time.Millisecond), 2),
		} {
			if err := tx.CreateShoppingListEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})

	view(t, s, func(tx store.Tx) error {
		list, err := tx.ListShoppingList(ctx, "usr-a")
		require.NoError(t, err)
		var ids []string
		for _, e := range list {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, []string{"shp-1", "shp-2", "shp-3"}, ids, "ordered by added time")

		got, err := tx.GetShoppingListEntryForIngredient(ctx, "usr-a", "ing-2")
		require.NoError(t, err)
		assert.Equal(t, "shp-2", got.ID)

		byID, err := tx.GetShoppingListEntry(ctx, "shp-3")
		require.NoError(t, err)
		assert.InDelta(t, 3, byID.Quantity, 1e-9)
		return nil
	})

	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.CreateShoppingListEntry(ctx, mk("shp-9", "ing-1", base, 5))
	})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	update(t, s, func(tx store.Tx) error {
		e, err := tx.GetShoppingListEntry(ctx, "shp-1")
		if err != nil {
			return err
		}
		e.Quantity = 8
		e.UpdatedAt = base.Add(time.Hour)
		return tx.UpdateShoppingListEntry(ctx, e)
	})
	update(t, s, func(tx store.Tx) error {
		if err := tx.DeleteShoppingListEntry(ctx, "shp-3"); err != nil {
			return err
		}
		return tx.DeleteShoppingListEntry(ctx, "shp-3")
	})

	view(t, s, func(tx store.Tx) error {
		e, err := tx.GetShoppingListEntryForIngredient(ctx, "usr-a", "ing-1")
		require.NoError(t, err)
		assert.InDelta(t, 8, e.Quantity, 1e-9)
		assert.True(t, e.AddedAt.Equal(base), "added time survives updates")

		_, err = tx.GetShoppingListEntryForIngredient(ctx, "usr-a", "ing-3")
		assert.ErrorIs(t, err, store.ErrNotFound)

		list, err := tx.ListShoppingList(ctx, "usr-a")
		require.NoError(t, err)
		assert.Len(t, list, 2)
		return nil
	})
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx store.Tx) error {
		if err := tx.CreatePantryEntry(ctx, &domain.PantryEntry{
			ID: "pty-1", OwnerID: "usr-a", IngredientID: "ing-1", Quantity: 5, UpdatedAt: base,
		}); err != nil {
			return err
		}

		got, err := tx.GetPantryEntry(ctx, "usr-a", "ing-1")
		require.NoError(t, err, "writes are visible later in the same transaction")
		assert.InDelta(t, 5, got.Quantity, 1e-9)

		list, err := tx.ListPantry(ctx, "usr-a")
		require.NoError(t, err)
		assert.Len(t, list, 1)
		return boom
	})
	require.ErrorIs(t, err, boom)

	view(t, s, func(tx store.Tx) error {
		_, err := tx.GetPantryEntry(ctx, "usr-a", "ing-1")
		assert.ErrorIs(t, err, store.ErrNotFound, "failed unit of work leaves no trace")
		return nil
	})

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = s.Update(cancelled, func(tx store.Tx) error { return nil })
	assert.Error(t, err)

	require.NoError(t, s.Ping(ctx))
}

func testWipe(t *testing.T, s store.Store) {
	ctx := context.Background()
	update(t, s, func(tx store.Tx) error {
		if err := tx.CreateUser(ctx, &domain.User{ID: "usr-1", Email: "a@example.com", CreatedAt: base, UpdatedAt: base}); err != nil {
			return err
		}
		return tx.CreateRecipe(ctx, &domain.Recipe{ID: "rcp-1", OwnerID: "usr-1", Title: "Soup", Servings: 1, CreatedAt: base, UpdatedAt: base})
	})

	require.NoError(t, s.Wipe(ctx))

	view(t, s, func(tx store.Tx) error {
		_, err := tx.GetUser(ctx, "usr-1")
		assert.ErrorIs(t, err, store.ErrNotFound)
		all, err := tx.ListAllRecipes(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
		return nil
	})
}
