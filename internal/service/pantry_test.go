package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPantryService_SetAndAdjust(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	flour := env.ingredient(t, "usr-a", "Flour")

	entry, err := env.pantry.SetQuantity(ctx, "usr-a", flour.ID, 500)
	require.NoError(t, err)
	assert.InDelta(t, 500, entry.Quantity, 1e-9)

	entry, err = env.pantry.AdjustQuantity(ctx, "usr-a", flour.ID, -200)
	require.NoError(t, err)
	assert.InDelta(t, 300, entry.Quantity, 1e-9)

	entry, err = env.pantry.AdjustQuantity(ctx, "usr-a", flour.ID, -1000)
	require.NoError(t, err)
	assert.Zero(t, entry.Quantity, "quantity is clamped at zero")

	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.PantryWritesTotal.WithLabelValues("set")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(env.metrics.PantryWritesTotal.WithLabelValues("adjust")), 0)
}

func TestPantryService_AdjustAbsentEntry(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	entry, err := env.pantry.AdjustQuantity(ctx, "usr-a", "ing-unknown", -5)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = env.pantry.AdjustQuantity(ctx, "usr-a", "ing-unknown", 5)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.InDelta(t, 5, entry.Quantity, 1e-9)
}

func TestPantryService_ListJoinsIngredients(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	flour := env.ingredient(t, "usr-a", "Flour")
	_, err := env.pantry.SetQuantity(ctx, "usr-a", flour.ID, 1)
	require.NoError(t, err)
	_, err = env.pantry.SetQuantity(ctx, "usr-a", "ing-gone", 2)
	require.NoError(t, err)
	_, err = env.pantry.SetQuantity(ctx, "usr-b", flour.ID, 3)
	require.NoError(t, err)

	items, err := env.pantry.List(ctx, "usr-a")
	require.NoError(t, err)
	require.Len(t, items, 2)

	byIngredient := map[string]*PantryItem{}
	for _, item := range items {
		byIngredient[item.Entry.IngredientID] = item
	}
	require.NotNil(t, byIngredient[flour.ID].Ingredient)
	assert.Equal(t, "Flour", byIngredient[flour.ID].Ingredient.Name)
	assert.Nil(t, byIngredient["ing-gone"].Ingredient)

	other, err := env.pantry.List(ctx, "usr-b")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Nil(t, other[0].Ingredient, "another owner's definition does not resolve")
}
