package main

import (
	"context"
	"crypto/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larderapp/larder-server/internal/auth"
	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/search"
	"github.com/larderapp/larder-server/internal/service"
	"github.com/larderapp/larder-server/internal/store/kv"
)

func loadTestFixture(t *testing.T) *Fixture {
	t.Helper()
	f, err := os.Open("testdata/weeknight.yaml")
	require.NoError(t, err)
	defer f.Close()

	fx, err := parseFixture(f)
	require.NoError(t, err)
	return fx
}

func TestParseFixture(t *testing.T) {
	fx := loadTestFixture(t)

	assert.Equal(t, "cook@example.com", fx.User.Email)
	assert.Len(t, fx.Ingredients, 4)
	assert.InDelta(t, 150, fx.Pantry["Rice"], 0)
	require.Len(t, fx.Recipes, 1)
	require.Len(t, fx.Recipes[0].Variations, 1)
	assert.Equal(t, "Spicy Rice and Beans", fx.Recipes[0].Variations[0].Title)
	assert.Len(t, fx.MealPlan, 2)
}

func TestParseFixture_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty",
			yaml:    "",
			wantErr: "fixture is empty",
		},
		{
			name:    "unknown key",
			yaml:    "ingredients:\n  - name: Rice\n    units: grams\n",
			wantErr: "field units not found",
		},
		{
			name:    "bad unit",
			yaml:    "ingredients:\n  - name: Rice\n    unit: cups\n",
			wantErr: "ingredients[0]",
		},
		{
			name:    "duplicate ingredient",
			yaml:    "ingredients:\n  - {name: Rice, unit: grams}\n  - {name: ' rice ', unit: grams}\n",
			wantErr: "duplicate name",
		},
		{
			name:    "pantry references unknown ingredient",
			yaml:    "pantry:\n  Saffron: 1\n",
			wantErr: `unknown ingredient "Saffron"`,
		},
		{
			name:    "line references unknown ingredient",
			yaml:    "recipes:\n  - title: Soup\n    servings: 1\n    lines:\n      - {ingredient: Leek, quantity: 1}\n",
			wantErr: "recipes[0].lines[0]",
		},
		{
			name:    "variation without servings",
			yaml:    "recipes:\n  - title: Soup\n    servings: 1\n    variations:\n      - title: Thick Soup\n",
			wantErr: "recipes[0].variations[0]: servings must be positive",
		},
		{
			name:    "meal plan references unknown recipe",
			yaml:    "meal_plan:\n  - {date: 2026-03-02, slot: lunch, recipe: Stew}\n",
			wantErr: `unknown recipe "Stew"`,
		},
		{
			name:    "meal plan bad date",
			yaml:    "recipes:\n  - {title: Stew, servings: 2}\nmeal_plan:\n  - {date: 03/02/2026, slot: lunch, recipe: Stew}\n",
			wantErr: "date must be YYYY-MM-DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFixture(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func newTestSeeder(t *testing.T) *seeder {
	t.Helper()

	log := logger.Discard()
	dir := t.TempDir()

	st, err := kv.Open(dir+"/db", log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.Open(search.Options{DataPath: dir, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	return &seeder{
		auth:        service.NewAuthService(st, tokens, log),
		ingredients: service.NewIngredientService(st, log),
		pantry:      service.NewPantryService(st, nil, log),
		recipes:     service.NewRecipeService(st, index, nil, log),
		mealPlan:    service.NewMealPlanService(st, log),
	}
}

func TestSeeder_Apply(t *testing.T) {
	ctx := context.Background()
	s := newTestSeeder(t)
	fx := loadTestFixture(t)

	report, err := s.apply(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.NewIngredients)
	assert.Equal(t, 3, report.PantryRows)
	assert.Equal(t, 2, report.NewRecipes)
	assert.Equal(t, 2, report.MealSlots)

	roots, err := s.recipes.List(ctx, report.UserID)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	root := roots[0].ID

	variations, err := s.recipes.ListVariations(ctx, report.UserID, root)
	require.NoError(t, err)
	require.Len(t, variations, 1)
	variation := variations[0].ID
	assert.Equal(t, "Spicy Rice and Beans", variations[0].Title)

	plan, err := s.mealPlan.ListRange(ctx, report.UserID, "2026-03-01", "2026-03-07")
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, root, plan[0].Entry.RecipeID)
	assert.Equal(t, variation, plan[1].Entry.RecipeID)
}

func TestSeeder_ApplyTwiceReusesRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestSeeder(t)
	fx := loadTestFixture(t)

	first, err := s.apply(ctx, fx)
	require.NoError(t, err)

	second, err := s.apply(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Zero(t, second.NewIngredients)
	assert.Zero(t, second.NewRecipes)
	assert.Equal(t, 2, second.Recipes)

	ingredients, err := s.ingredients.List(ctx, first.UserID, "")
	require.NoError(t, err)
	assert.Len(t, ingredients, 4)

	roots, err := s.recipes.List(ctx, first.UserID)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	variations, err := s.recipes.ListVariations(ctx, first.UserID, roots[0].ID)
	require.NoError(t, err)
	require.Len(t, variations, 1, "a rerun must not create another copy of the variation")

	plan, err := s.mealPlan.ListRange(ctx, first.UserID, "2026-03-01", "2026-03-07")
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, variations[0].ID, plan[1].Entry.RecipeID)
}

func TestSeeder_ApplyThreeTimesKeepsOneVariation(t *testing.T) {
	ctx := context.Background()
	s := newTestSeeder(t)
	fx := loadTestFixture(t)

	var userID string
	for range 3 {
		report, err := s.apply(ctx, fx)
		require.NoError(t, err)
		userID = report.UserID
	}

	roots, err := s.recipes.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	variations, err := s.recipes.ListVariations(ctx, userID, roots[0].ID)
	require.NoError(t, err)
	assert.Len(t, variations, 1)
}

func TestSeeder_WrongPasswordForExistingAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestSeeder(t)
	fx := loadTestFixture(t)

	_, err := s.apply(ctx, fx)
	require.NoError(t, err)

	fx.User.Password = "a-different-password"
	_, err = s.apply(ctx, fx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password does not match")
}
