package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larderapp/larder-server/internal/domain"
)

func TestMealPlan_AssignListRemove(t *testing.T) {
	ts := setupTestServer(t)
	authHeader, _ := ts.register(t, "cook@example.com")

	oats := ts.createRecipe(t, authHeader, map[string]any{"title": "Oats", "servings": 1})
	stew := ts.createRecipe(t, authHeader, map[string]any{"title": "Stew", "servings": 4})
	curry := ts.createRecipe(t, authHeader, map[string]any{"title": "Curry", "servings": 4})

	assign := func(date, slot, recipeID string) *domain.MealPlanEntry {
		resp := ts.api.Post("/api/v1/meal-plan", authHeader, map[string]any{
			"date":      date,
			"meal_slot": slot,
			"recipe_id": recipeID,
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		return decode[*domain.MealPlanEntry](t, resp.Body.Bytes()).Data
	}

	dinner := assign("2026-05-04", "dinner", stew)
	assign("2026-05-04", "breakfast", oats)
	replaced := assign("2026-05-04", "Dinner ", curry)
	assert.Equal(t, dinner.ID, replaced.ID, "same slot is replaced, not duplicated")
	assign("2026-05-20", "lunch", stew)

	resp := ts.api.Get("/api/v1/meal-plan?start=2026-05-01&end=2026-05-07", authHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	plan := decode[MealPlanListResponse](t, resp.Body.Bytes())
	require.Len(t, plan.Data.Items, 2)
	assert.Equal(t, "breakfast", plan.Data.Items[0].MealSlot)
	assert.Equal(t, "dinner", plan.Data.Items[1].MealSlot)
	require.NotNil(t, plan.Data.Items[1].Recipe)
	assert.Equal(t, "Curry", plan.Data.Items[1].Recipe.Title)

	resp = ts.api.Delete("/api/v1/meal-plan/"+dinner.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/meal-plan?start=2026-05-01&end=2026-05-07", authHeader)
	plan = decode[MealPlanListResponse](t, resp.Body.Bytes())
	assert.Len(t, plan.Data.Items, 1)
}

func TestMealPlan_Validation(t *testing.T) {
	ts := setupTestServer(t)
	authHeader, _ := ts.register(t, "cook@example.com")
	stew := ts.createRecipe(t, authHeader, map[string]any{"title": "Stew", "servings": 4})

	resp := ts.api.Post("/api/v1/meal-plan", authHeader, map[string]any{
		"date":      "2026-02-30",
		"meal_slot": "dinner",
		"recipe_id": stew,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/meal-plan", authHeader, map[string]any{
		"date":      "2026-02-03",
		"meal_slot": "dinner",
		"recipe_id": "rcp-missing",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/meal-plan?start=2026-05-07&end=2026-05-01", authHeader)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/api/v1/meal-plan?start=2026-05-07", authHeader)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
