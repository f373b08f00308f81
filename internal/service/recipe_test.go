package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/metrics"
	"github.com/larderapp/larder-server/internal/reconcile"
	"github.com/larderapp/larder-server/internal/search"
	"github.com/larderapp/larder-server/internal/store"
)

func TestRecipeService_CreateAndGet(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	basil := env.ingredient(t, "usr-a", "Basil")
	created, err := env.recipes.Create(ctx, "usr-a", RecipeRequest{
		Title:        "  Pesto ",
		Instructions: "<p>Blend <strong>everything</strong>.</p>",
		Servings:     4,
		Lines:        []LineRequest{{IngredientID: basil.ID, Quantity: 50, Unit: "grams"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pesto", created.Title)
	assert.Equal(t, "Blend **everything**.", created.Instructions)

	detail, err := env.recipes.Get(ctx, "usr-a", created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)
	require.NotNil(t, detail.Lines[0].Ingredient)
	assert.Equal(t, "Basil", detail.Lines[0].Ingredient.Name)
	assert.Nil(t, detail.Parent)
}

func TestRecipeService_CreateValidation(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	tests := map[string]RecipeRequest{
		"zero servings":     {Title: "A", Servings: 0},
		"missing title":     {Servings: 2},
		"line without id":   {Title: "A", Servings: 2, Lines: []LineRequest{{Quantity: 1}}},
		"negative amount":   {Title: "A", Servings: 2, Lines: []LineRequest{{IngredientID: "ing-x", Quantity: -1}}},
		"negative servings": {Title: "A", Servings: -2},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := env.recipes.Create(ctx, "usr-a", req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestRecipeService_VariationsFlattenToRoot(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	root := env.recipe(t, "usr-a", "Tomato Sauce", 4)

	child, err := env.recipes.Create(ctx, "usr-a", RecipeRequest{Title: "Spicy Tomato Sauce", Servings: 4, ParentRecipeID: root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, child.ParentRecipeID)

	grandchild, err := env.recipes.Create(ctx, "usr-a", RecipeRequest{Title: "Extra Spicy", Servings: 4, ParentRecipeID: child.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, grandchild.ParentRecipeID, "a variation of a variation hangs off the root")

	roots, err := env.recipes.List(ctx, "usr-a")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, root.ID, roots[0].ID)

	variations, err := env.recipes.ListVariations(ctx, "usr-a", root.ID)
	require.NoError(t, err)
	assert.Len(t, variations, 2)

	detail, err := env.recipes.Get(ctx, "usr-a", grandchild.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Parent)
	assert.Equal(t, root.ID, detail.Parent.ID)
}

func TestRecipeService_ParentChecks(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	foreign := env.recipe(t, "usr-b", "Theirs", 2)

	_, err := env.recipes.Create(ctx, "usr-a", RecipeRequest{Title: "Mine", Servings: 2, ParentRecipeID: foreign.ID})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.recipes.Create(ctx, "usr-a", RecipeRequest{Title: "Mine", Servings: 2, ParentRecipeID: "rcp-missing"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	list, err := env.recipes.List(ctx, "usr-a")
	require.NoError(t, err)
	assert.Empty(t, list, "failed creates write nothing")
}

func TestRecipeService_DeletedParentResolvesToNil(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	root := env.recipe(t, "usr-a", "Bread", 1)
	child, err := env.recipes.Create(ctx, "usr-a", RecipeRequest{Title: "Rye Bread", Servings: 1, ParentRecipeID: root.ID})
	require.NoError(t, err)

	require.NoError(t, env.recipes.Delete(ctx, "usr-a", root.ID))

	detail, err := env.recipes.Get(ctx, "usr-a", child.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Parent)
	assert.Equal(t, root.ID, detail.Recipe.ParentRecipeID)
}

func TestRecipeService_OwnerScoping(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	r := env.recipe(t, "usr-a", "Secret Stew", 2)

	_, err := env.recipes.Get(ctx, "usr-b", r.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.recipes.Update(ctx, "usr-b", r.ID, RecipeRequest{Title: "Stolen", Servings: 2})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	assert.ErrorIs(t, env.recipes.Delete(ctx, "usr-b", r.ID), domainerrors.ErrForbidden)

	_, err = env.recipes.Cook(ctx, "usr-b", r.ID, 2, nil)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.recipes.Get(ctx, "usr-a", "rcp-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRecipeService_UpdateKeepsLineageAndHistory(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	root := env.recipe(t, "usr-a", "Curry", 4)
	child, err := env.recipes.Create(ctx, "usr-a", RecipeRequest{Title: "Green Curry", Servings: 4, ParentRecipeID: root.ID})
	require.NoError(t, err)

	duration := 30.0
	_, err = env.recipes.Cook(ctx, "usr-a", child.ID, 4, &duration)
	require.NoError(t, err)

	updated, err := env.recipes.Update(ctx, "usr-a", child.ID, RecipeRequest{Title: "Thai Green Curry", Servings: 2, ParentRecipeID: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "Thai Green Curry", updated.Title)
	assert.InDelta(t, 2, updated.Servings, 0)
	assert.Equal(t, root.ID, updated.ParentRecipeID)
	assert.Len(t, updated.History, 1)
	assert.NotNil(t, updated.LastCookedAt)
}

func TestRecipeService_Search(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	basil := env.ingredient(t, "usr-a", "Basil")
	pesto := env.recipe(t, "usr-a", "Pesto Pasta", 2, LineRequest{IngredientID: basil.ID, Quantity: 20})
	env.recipe(t, "usr-a", "Pancakes", 2)
	env.recipe(t, "usr-b", "Pesto Pizza", 2)

	res, err := env.recipes.Search(ctx, "usr-a", search.DefaultParams("", "pesto"))
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, pesto.ID, res.Hits[0].ID)

	res, err = env.recipes.Search(ctx, "usr-a", search.DefaultParams("", "basil"))
	require.NoError(t, err)
	require.Len(t, res.Hits, 1, "ingredient names are searchable")

	updated, err := env.recipes.Update(ctx, "usr-a", pesto.ID, RecipeRequest{Title: "Green Linguine", Servings: 2})
	require.NoError(t, err)
	res, err = env.recipes.Search(ctx, "usr-a", search.DefaultParams("", "linguine"))
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, updated.ID, res.Hits[0].ID)

	require.NoError(t, env.recipes.Delete(ctx, "usr-a", pesto.ID))
	res, err = env.recipes.Search(ctx, "usr-a", search.DefaultParams("", "linguine"))
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestRecipeService_Reindex(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	env.recipe(t, "usr-a", "Lentil Soup", 4)
	env.recipe(t, "usr-b", "Minestrone", 4)

	require.NoError(t, env.index.Rebuild())
	count, err := env.index.DocumentCount()
	require.NoError(t, err)
	require.Zero(t, count)

	n, err := env.recipes.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := env.recipes.Search(ctx, "usr-a", search.DefaultParams("", "lentil"))
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
}

// Soup needs 400g of X per 4 servings; cooking 2 servings needs 200g.
func TestRecipeService_CookSoup(t *testing.T) {
	tests := []struct {
		name        string
		stock       float64
		wantSuccess bool
		wantPantry  float64
		wantList    float64
	}{
		{name: "short of stock", stock: 100, wantSuccess: false, wantPantry: 0, wantList: 100},
		{name: "enough stock", stock: 300, wantSuccess: true, wantPantry: 100, wantList: 0},
		{name: "exact stock", stock: 200, wantSuccess: true, wantPantry: 0, wantList: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupServiceTest(t)
			ctx := context.Background()

			x := env.ingredient(t, "usr-a", "X")
			soup := env.recipe(t, "usr-a", "Soup", 4, LineRequest{IngredientID: x.ID, Quantity: 400, Unit: "grams"})
			_, err := env.pantry.SetQuantity(ctx, "usr-a", x.ID, tt.stock)
			require.NoError(t, err)

			result, err := env.recipes.Cook(ctx, "usr-a", soup.ID, 2, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			require.Len(t, result.Results, 1)
			assert.InDelta(t, 200, result.Results[0].Needed, 1e-9)
			assert.InDelta(t, tt.stock, result.Results[0].Had, 1e-9)

			assert.InDelta(t, tt.wantPantry, env.onHand(t, "usr-a", x.ID), 1e-9)

			items, err := env.shopping.List(ctx, "usr-a")
			require.NoError(t, err)
			if tt.wantList == 0 {
				assert.Empty(t, items)
				return
			}
			require.Len(t, items, 1)
			assert.InDelta(t, tt.wantList, items[0].Entry.Quantity, 1e-9)
			assert.Equal(t, reconcile.StatusMissing, result.Results[0].Status)
		})
	}
}

func TestRecipeService_CookTwiceIsTwoEvents(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	env.recipes.now = func() time.Time { return time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC) }

	x := env.ingredient(t, "usr-a", "X")
	soup := env.recipe(t, "usr-a", "Soup", 4, LineRequest{IngredientID: x.ID, Quantity: 400})
	_, err := env.pantry.SetQuantity(ctx, "usr-a", x.ID, 200)
	require.NoError(t, err)

	first, err := env.recipes.Cook(ctx, "usr-a", soup.ID, 2, nil)
	require.NoError(t, err)
	assert.True(t, first.Success)

	second, err := env.recipes.Cook(ctx, "usr-a", soup.ID, 2, nil)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.InDelta(t, 200, second.Results[0].Deficit, 1e-9)

	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.CooksTotal.WithLabelValues("complete")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.CooksTotal.WithLabelValues("missing")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.ShoppingMergesTotal.WithLabelValues(metrics.PolicyAdditive, "added")), 0)

	var lastCooked *time.Time
	require.NoError(t, env.store.View(ctx, func(tx store.Tx) error {
		r, err := tx.GetRecipe(ctx, soup.ID)
		if err != nil {
			return err
		}
		lastCooked = r.LastCookedAt
		return nil
	}))
	require.NotNil(t, lastCooked)
	assert.True(t, lastCooked.Equal(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)))
}

func TestRecipeService_CookMissingRecipe(t *testing.T) {
	env := setupServiceTest(t)

	_, err := env.recipes.Cook(context.Background(), "usr-a", "rcp-missing", 2, nil)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
