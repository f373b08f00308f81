package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/larderapp/larder-server/internal/domain"
)

func (s *Server) registerPantryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPantry",
		Method:      http.MethodGet,
		Path:        "/api/v1/pantry",
		Summary:     "List pantry",
		Description: "Returns every pantry entry with its ingredient, including zero quantities",
		Tags:        []string{"Pantry"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListPantry)

	huma.Register(s.api, huma.Operation{
		OperationID: "setPantryQuantity",
		Method:      http.MethodPut,
		Path:        "/api/v1/pantry/{ingredientId}",
		Summary:     "Set pantry quantity",
		Description: "Overwrites the amount on hand, creating the entry if needed",
		Tags:        []string{"Pantry"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetPantryQuantity)

	huma.Register(s.api, huma.Operation{
		OperationID: "adjustPantryQuantity",
		Method:      http.MethodPost,
		Path:        "/api/v1/pantry/{ingredientId}/adjust",
		Summary:     "Adjust pantry quantity",
		Description: "Adds a signed delta to the amount on hand. The result never goes below zero.",
		Tags:        []string{"Pantry"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdjustPantryQuantity)
}

// === DTOs ===

// PantryEntryResponse is the amount on hand of one ingredient.
type PantryEntryResponse struct {
	IngredientID string             `json:"ingredient_id" doc:"Ingredient ID"`
	Quantity     float64            `json:"quantity" doc:"Amount on hand"`
	UpdatedAt    *time.Time         `json:"updated_at,omitempty" doc:"Last change, absent when no entry exists"`
	Ingredient   *domain.Ingredient `json:"ingredient,omitempty" doc:"Ingredient definition, absent when it no longer resolves"`
}

func toPantryEntryResponse(ingredientID string, e *domain.PantryEntry, ing *domain.Ingredient) PantryEntryResponse {
	resp := PantryEntryResponse{IngredientID: ingredientID, Ingredient: ing}
	if e != nil {
		resp.Quantity = e.Quantity
		updated := e.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// ListPantryInput carries the bearer token.
type ListPantryInput struct {
	Authorization string `header:"Authorization"`
}

// PantryListResponse contains the caller's pantry.
type PantryListResponse struct {
	Items []PantryEntryResponse `json:"items" doc:"Pantry entries"`
}

// PantryListOutput wraps the pantry for Huma.
type PantryListOutput struct {
	Body PantryListResponse
}

// SetPantryRequest is the request body for setting a quantity.
type SetPantryRequest struct {
	Quantity float64 `json:"quantity" doc:"New amount on hand"`
}

// SetPantryInput wraps the set request for Huma.
type SetPantryInput struct {
	Authorization string `header:"Authorization"`
	IngredientID  string `path:"ingredientId" doc:"Ingredient ID"`
	Body          SetPantryRequest
}

// AdjustPantryRequest is the request body for adjusting a quantity.
type AdjustPantryRequest struct {
	Delta float64 `json:"delta" doc:"Signed change to the amount on hand"`
}

// AdjustPantryInput wraps the adjust request for Huma.
type AdjustPantryInput struct {
	Authorization string `header:"Authorization"`
	IngredientID  string `path:"ingredientId" doc:"Ingredient ID"`
	Body          AdjustPantryRequest
}

// PantryEntryOutput wraps a pantry entry for Huma.
type PantryEntryOutput struct {
	Body PantryEntryResponse
}

// === Handlers ===

func (s *Server) handleListPantry(ctx context.Context, input *ListPantryInput) (*PantryListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Pantry.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := PantryListResponse{Items: make([]PantryEntryResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toPantryEntryResponse(item.Entry.IngredientID, item.Entry, item.Ingredient))
	}
	return &PantryListOutput{Body: resp}, nil
}

func (s *Server) handleSetPantryQuantity(ctx context.Context, input *SetPantryInput) (*PantryEntryOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.Pantry.SetQuantity(ctx, userID, input.IngredientID, input.Body.Quantity)
	if err != nil {
		return nil, err
	}
	return &PantryEntryOutput{Body: toPantryEntryResponse(input.IngredientID, entry, nil)}, nil
}

func (s *Server) handleAdjustPantryQuantity(ctx context.Context, input *AdjustPantryInput) (*PantryEntryOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.Pantry.AdjustQuantity(ctx, userID, input.IngredientID, input.Body.Delta)
	if err != nil {
		return nil, err
	}
	return &PantryEntryOutput{Body: toPantryEntryResponse(input.IngredientID, entry, nil)}, nil
}
