package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/reconcile"
	"github.com/larderapp/larder-server/internal/service"
)

func (s *Server) registerShoppingListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listShoppingList",
		Method:      http.MethodGet,
		Path:        "/api/v1/shopping-list",
		Summary:     "List shopping list",
		Description: "Returns the shopping list in the order items were added",
		Tags:        []string{"Shopping List"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListShoppingList)

	huma.Register(s.api, huma.Operation{
		OperationID: "addToShoppingList",
		Method:      http.MethodPost,
		Path:        "/api/v1/shopping-list",
		Summary:     "Add to shopping list",
		Description: "Adds an amount of an ingredient. An existing item for the ingredient is increased.",
		Tags:        []string{"Shopping List"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddToShoppingList)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearShoppingList",
		Method:      http.MethodDelete,
		Path:        "/api/v1/shopping-list",
		Summary:     "Clear shopping list",
		Tags:        []string{"Shopping List"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleClearShoppingList)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeShoppingListItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/shopping-list/{id}",
		Summary:     "Remove shopping list item",
		Tags:        []string{"Shopping List"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveShoppingListItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "generateShoppingList",
		Method:      http.MethodPost,
		Path:        "/api/v1/shopping-list/generate",
		Summary:     "Generate from meal plan",
		Description: "Totals the ingredients of every planned meal in the range and raises the shopping list to cover what the pantry lacks",
		Tags:        []string{"Shopping List"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGenerateShoppingList)
}

// === DTOs ===

// ShoppingItemResponse is a shopping list item with its ingredient.
type ShoppingItemResponse struct {
	ID           string             `json:"id" doc:"Shopping list item ID"`
	IngredientID string             `json:"ingredient_id" doc:"Ingredient ID"`
	Quantity     float64            `json:"quantity" doc:"Amount to buy"`
	AddedAt      time.Time          `json:"added_at" doc:"When the item was first added"`
	UpdatedAt    time.Time          `json:"updated_at" doc:"Last change"`
	Ingredient   *domain.Ingredient `json:"ingredient,omitempty" doc:"Definition, absent when it no longer resolves"`
}

func toShoppingItemResponse(e *domain.ShoppingListEntry, ing *domain.Ingredient) ShoppingItemResponse {
	return ShoppingItemResponse{
		ID:           e.ID,
		IngredientID: e.IngredientID,
		Quantity:     e.Quantity,
		AddedAt:      e.AddedAt,
		UpdatedAt:    e.UpdatedAt,
		Ingredient:   ing,
	}
}

// ShoppingListInput carries the bearer token.
type ShoppingListInput struct {
	Authorization string `header:"Authorization"`
}

// ShoppingListResponse contains the shopping list.
type ShoppingListResponse struct {
	Items []ShoppingItemResponse `json:"items" doc:"Items to buy"`
}

// ShoppingListOutput wraps the list for Huma.
type ShoppingListOutput struct {
	Body ShoppingListResponse
}

// AddShoppingRequest is the request body for adding an item.
type AddShoppingRequest struct {
	IngredientID string  `json:"ingredient_id" minLength:"1" doc:"Ingredient ID"`
	Quantity     float64 `json:"quantity" exclusiveMinimum:"0" doc:"Amount to add"`
}

// AddShoppingInput wraps the add request for Huma.
type AddShoppingInput struct {
	Authorization string `header:"Authorization"`
	Body          AddShoppingRequest
}

// ShoppingItemOutput wraps an item for Huma.
type ShoppingItemOutput struct {
	Body ShoppingItemResponse
}

// ShoppingItemIDInput identifies one item.
type ShoppingItemIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shopping list item ID"`
}

// ClearShoppingResponse reports how many items were removed.
type ClearShoppingResponse struct {
	Removed int    `json:"removed" doc:"Items removed"`
	Message string `json:"message" doc:"Result message"`
}

// ClearShoppingOutput wraps the clear result for Huma.
type ClearShoppingOutput struct {
	Body ClearShoppingResponse
}

// GenerateShoppingRequest is the date range to plan from.
type GenerateShoppingRequest struct {
	StartDate string `json:"start_date" format:"date" doc:"First date, YYYY-MM-DD"`
	EndDate   string `json:"end_date" format:"date" doc:"Last date, YYYY-MM-DD"`
}

// GenerateShoppingInput wraps the generate request for Huma.
type GenerateShoppingInput struct {
	Authorization string `header:"Authorization"`
	Body          GenerateShoppingRequest
}

// GenerateShoppingOutput wraps the plan summary for Huma.
type GenerateShoppingOutput struct {
	Body *reconcile.PlanSummary
}

// === Handlers ===

func (s *Server) handleListShoppingList(ctx context.Context, input *ShoppingListInput) (*ShoppingListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	items, err := s.services.ShoppingList.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ShoppingListResponse{Items: make([]ShoppingItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toShoppingItemResponse(item.Entry, item.Ingredient))
	}
	return &ShoppingListOutput{Body: resp}, nil
}

func (s *Server) handleAddToShoppingList(ctx context.Context, input *AddShoppingInput) (*ShoppingItemOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.ShoppingList.Add(ctx, userID, service.AddRequest{
		IngredientID: input.Body.IngredientID,
		Quantity:     input.Body.Quantity,
	})
	if err != nil {
		return nil, err
	}
	return &ShoppingItemOutput{Body: toShoppingItemResponse(entry, nil)}, nil
}

func (s *Server) handleClearShoppingList(ctx context.Context, input *ShoppingListInput) (*ClearShoppingOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	n, err := s.services.ShoppingList.Clear(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ClearShoppingOutput{Body: ClearShoppingResponse{
		Removed: n,
		Message: fmt.Sprintf("Removed %d items", n),
	}}, nil
}

func (s *Server) handleRemoveShoppingListItem(ctx context.Context, input *ShoppingItemIDInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.ShoppingList.Remove(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Item removed"}}, nil
}

func (s *Server) handleGenerateShoppingList(ctx context.Context, input *GenerateShoppingInput) (*GenerateShoppingOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	summary, err := s.services.ShoppingList.GenerateFromPlan(ctx, userID, input.Body.StartDate, input.Body.EndDate)
	if err != nil {
		return nil, err
	}
	return &GenerateShoppingOutput{Body: summary}, nil
}
