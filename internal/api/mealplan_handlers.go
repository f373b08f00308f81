package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/service"
)

func (s *Server) registerMealPlanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMealPlan",
		Method:      http.MethodGet,
		Path:        "/api/v1/meal-plan",
		Summary:     "List meal plan",
		Description: "Returns planned meals between start and end inclusive, by date then slot",
		Tags:        []string{"Meal Plan"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMealPlan)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignMealPlanSlot",
		Method:      http.MethodPost,
		Path:        "/api/v1/meal-plan",
		Summary:     "Plan a meal",
		Description: "Puts a recipe in a date and meal slot, replacing whatever was planned there",
		Tags:        []string{"Meal Plan"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAssignMealPlanSlot)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeMealPlanEntry",
		Method:      http.MethodDelete,
		Path:        "/api/v1/meal-plan/{id}",
		Summary:     "Remove planned meal",
		Tags:        []string{"Meal Plan"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveMealPlanEntry)
}

// === DTOs ===

// ListMealPlanInput contains the date range.
type ListMealPlanInput struct {
	Authorization string `header:"Authorization"`
	Start         string `query:"start" required:"true" format:"date" doc:"First date, YYYY-MM-DD"`
	End           string `query:"end" required:"true" format:"date" doc:"Last date, YYYY-MM-DD"`
}

// MealPlanItemResponse is a planned meal with its recipe.
type MealPlanItemResponse struct {
	ID       string         `json:"id" doc:"Meal plan entry ID"`
	Date     string         `json:"date" doc:"Date, YYYY-MM-DD"`
	MealSlot string         `json:"meal_slot" doc:"Slot label"`
	RecipeID string         `json:"recipe_id" doc:"Planned recipe ID"`
	Recipe   *domain.Recipe `json:"recipe,omitempty" doc:"Planned recipe, absent when it has been deleted"`
}

// MealPlanListResponse contains planned meals.
type MealPlanListResponse struct {
	Start string                 `json:"start" doc:"First date"`
	End   string                 `json:"end" doc:"Last date"`
	Items []MealPlanItemResponse `json:"items" doc:"Planned meals"`
}

// MealPlanListOutput wraps the plan for Huma.
type MealPlanListOutput struct {
	Body MealPlanListResponse
}

// AssignMealRequest is the request body for planning a meal.
type AssignMealRequest struct {
	Date     string `json:"date" format:"date" doc:"Date, YYYY-MM-DD"`
	MealSlot string `json:"meal_slot" minLength:"1" maxLength:"32" doc:"Slot label such as breakfast, lunch or dinner"`
	RecipeID string `json:"recipe_id" minLength:"1" doc:"Recipe to cook"`
}

// AssignMealInput wraps the assign request for Huma.
type AssignMealInput struct {
	Authorization string `header:"Authorization"`
	Body          AssignMealRequest
}

// MealPlanEntryOutput wraps a plan entry for Huma.
type MealPlanEntryOutput struct {
	Body *domain.MealPlanEntry
}

// MealPlanIDInput identifies one planned meal.
type MealPlanIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Meal plan entry ID"`
}

// === Handlers ===

func (s *Server) handleListMealPlan(ctx context.Context, input *ListMealPlanInput) (*MealPlanListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	items, err := s.services.MealPlan.ListRange(ctx, userID, input.Start, input.End)
	if err != nil {
		return nil, err
	}

	resp := MealPlanListResponse{
		Start: input.Start,
		End:   input.End,
		Items: make([]MealPlanItemResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, MealPlanItemResponse{
			ID:       item.Entry.ID,
			Date:     item.Entry.Date,
			MealSlot: item.Entry.MealSlot,
			RecipeID: item.Entry.RecipeID,
			Recipe:   item.Recipe,
		})
	}
	return &MealPlanListOutput{Body: resp}, nil
}

func (s *Server) handleAssignMealPlanSlot(ctx context.Context, input *AssignMealInput) (*MealPlanEntryOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.MealPlan.Assign(ctx, userID, service.AssignRequest{
		Date:     input.Body.Date,
		MealSlot: input.Body.MealSlot,
		RecipeID: input.Body.RecipeID,
	})
	if err != nil {
		return nil, err
	}
	return &MealPlanEntryOutput{Body: entry}, nil
}

func (s *Server) handleRemoveMealPlanEntry(ctx context.Context, input *MealPlanIDInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.MealPlan.Remove(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Meal removed from plan"}}, nil
}
