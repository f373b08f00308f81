package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/metrics"
)

func TestShoppingListService_AddIsAdditive(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	milk := env.ingredient(t, "usr-a", "Milk")

	first, err := env.shopping.Add(ctx, "usr-a", AddRequest{IngredientID: milk.ID, Quantity: 5})
	require.NoError(t, err)

	second, err := env.shopping.Add(ctx, "usr-a", AddRequest{IngredientID: milk.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, 8, second.Quantity, 1e-9)

	items, err := env.shopping.List(ctx, "usr-a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Ingredient)
	assert.Equal(t, "Milk", items[0].Ingredient.Name)
}

func TestShoppingListService_AddValidation(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	milk := env.ingredient(t, "usr-a", "Milk")
	theirs := env.ingredient(t, "usr-b", "Eggs")

	_, err := env.shopping.Add(ctx, "usr-a", AddRequest{IngredientID: milk.ID, Quantity: 0})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.shopping.Add(ctx, "usr-a", AddRequest{IngredientID: theirs.ID, Quantity: 1})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.shopping.Add(ctx, "usr-a", AddRequest{IngredientID: "ing-missing", Quantity: 1})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestShoppingListService_RemoveAndClear(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	milk := env.ingredient(t, "usr-a", "Milk")
	eggs := env.ingredient(t, "usr-a", "Eggs")
	bread := env.ingredient(t, "usr-b", "Bread")

	entry, err := env.shopping.Add(ctx, "usr-a", AddRequest{IngredientID: milk.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.shopping.Add(ctx, "usr-a", AddRequest{IngredientID: eggs.ID, Quantity: 12})
	require.NoError(t, err)
	theirs, err := env.shopping.Add(ctx, "usr-b", AddRequest{IngredientID: bread.ID, Quantity: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, env.shopping.Remove(ctx, "usr-a", theirs.ID), domainerrors.ErrForbidden)
	assert.ErrorIs(t, env.shopping.Remove(ctx, "usr-a", "shp-missing"), domainerrors.ErrNotFound)
	require.NoError(t, env.shopping.Remove(ctx, "usr-a", entry.ID))

	removed, err := env.shopping.Clear(ctx, "usr-a")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	items, err := env.shopping.List(ctx, "usr-a")
	require.NoError(t, err)
	assert.Empty(t, items)

	others, err := env.shopping.List(ctx, "usr-b")
	require.NoError(t, err)
	assert.Len(t, others, 1, "clearing one list leaves other owners alone")
}

func TestShoppingListService_GenerateFromPlan(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	rice := env.ingredient(t, "usr-a", "Rice")
	beans := env.ingredient(t, "usr-a", "Beans")
	bowl := env.recipe(t, "usr-a", "Rice Bowl", 4,
		LineRequest{IngredientID: rice.ID, Quantity: 300},
		LineRequest{IngredientID: beans.ID, Quantity: 200},
	)

	for _, date := range []string{"2026-03-02", "2026-03-04"} {
		_, err := env.plans.Assign(ctx, "usr-a", AssignRequest{Date: date, MealSlot: "dinner", RecipeID: bowl.ID})
		require.NoError(t, err)
	}
	_, err := env.pantry.SetQuantity(ctx, "usr-a", rice.ID, 1000)
	require.NoError(t, err)
	_, err = env.pantry.SetQuantity(ctx, "usr-a", beans.ID, 100)
	require.NoError(t, err)

	summary, err := env.shopping.GenerateFromPlan(ctx, "usr-a", "2026-03-02", "2026-03-08")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PlannedMeals)
	assert.Equal(t, 1, summary.Covered)
	assert.Equal(t, 1, summary.Created)

	items, err := env.shopping.List(ctx, "usr-a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, beans.ID, items[0].Entry.IngredientID)
	assert.InDelta(t, 300, items[0].Entry.Quantity, 1e-9, "2 x 200 unscaled, minus 100 on hand")

	again, err := env.shopping.GenerateFromPlan(ctx, "usr-a", "2026-03-02", "2026-03-08")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Unchanged)

	items, err = env.shopping.List(ctx, "usr-a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.InDelta(t, 300, items[0].Entry.Quantity, 1e-9)

	assert.InDelta(t, 2, testutil.ToFloat64(env.metrics.PlanGenerationsTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.ShoppingMergesTotal.WithLabelValues(metrics.PolicyRaiseTo, "created")), 0)
}

func TestShoppingListService_GenerateValidatesRange(t *testing.T) {
	env := setupServiceTest(t)

	_, err := env.shopping.GenerateFromPlan(context.Background(), "usr-a", "2026-03-02", "2027-06-01")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
