package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/service"
)

func (s *Server) registerIngredientRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listIngredients",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients",
		Summary:     "List ingredients",
		Description: "Returns the caller's ingredient definitions, optionally filtered by name",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListIngredients)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createIngredient",
		Method:        http.MethodPost,
		Path:          "/api/v1/ingredients",
		Summary:       "Create ingredient",
		Description:   "Adds an ingredient definition. Names need not be unique.",
		Tags:          []string{"Ingredients"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "getIngredient",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Get ingredient",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateIngredient",
		Method:      http.MethodPut,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Update ingredient",
		Description: "Replaces an ingredient's name and default unit",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteIngredient",
		Method:      http.MethodDelete,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Delete ingredient",
		Description: "Deletes a definition. Recipes and pantry entries that refer to it are kept and stop resolving it.",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteIngredient)
}

// === DTOs ===

// IngredientRequest is the request body for creating or replacing an ingredient.
type IngredientRequest struct {
	Name        string `json:"name" minLength:"1" maxLength:"200" doc:"Display name"`
	DefaultUnit string `json:"default_unit" enum:"grams,ml,count,tsp,tbsp" doc:"Unit quantities are measured in"`
}

func (r IngredientRequest) toService() service.IngredientRequest {
	return service.IngredientRequest{Name: r.Name, DefaultUnit: domain.Unit(r.DefaultUnit)}
}

// ListIngredientsInput contains parameters for listing ingredients.
type ListIngredientsInput struct {
	Authorization string `header:"Authorization"`
	Name          string `query:"name" doc:"Only return ingredients with this name, ignoring case and punctuation"`
}

// CreateIngredientInput wraps the create request for Huma.
type CreateIngredientInput struct {
	Authorization string `header:"Authorization"`
	Body          IngredientRequest
}

// IngredientIDInput identifies one ingredient.
type IngredientIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Ingredient ID"`
}

// UpdateIngredientInput wraps the update request for Huma.
type UpdateIngredientInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Ingredient ID"`
	Body          IngredientRequest
}

// IngredientListResponse contains a list of ingredients.
type IngredientListResponse struct {
	Ingredients []*domain.Ingredient `json:"ingredients" doc:"Ingredient definitions"`
}

// IngredientListOutput wraps the ingredient list for Huma.
type IngredientListOutput struct {
	Body IngredientListResponse
}

// IngredientOutput wraps an ingredient for Huma.
type IngredientOutput struct {
	Body *domain.Ingredient
}

// MessageResponse is a generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a message for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleListIngredients(ctx context.Context, input *ListIngredientsInput) (*IngredientListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ingredients, err := s.services.Ingredient.List(ctx, userID, input.Name)
	if err != nil {
		return nil, err
	}
	return &IngredientListOutput{Body: IngredientListResponse{Ingredients: nonNil(ingredients)}}, nil
}

func (s *Server) handleCreateIngredient(ctx context.Context, input *CreateIngredientInput) (*IngredientOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.Create(ctx, userID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &IngredientOutput{Body: ing}, nil
}

func (s *Server) handleGetIngredient(ctx context.Context, input *IngredientIDInput) (*IngredientOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &IngredientOutput{Body: ing}, nil
}

func (s *Server) handleUpdateIngredient(ctx context.Context, input *UpdateIngredientInput) (*IngredientOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.Update(ctx, userID, input.ID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &IngredientOutput{Body: ing}, nil
}

func (s *Server) handleDeleteIngredient(ctx context.Context, input *IngredientIDInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Ingredient.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Ingredient deleted"}}, nil
}
