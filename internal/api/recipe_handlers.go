package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/reconcile"
	"github.com/larderapp/larder-server/internal/search"
	"github.com/larderapp/larder-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the caller's root recipes. Variations are listed per recipe.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/v1/recipes",
		Summary:       "Create recipe",
		Description:   "Creates a recipe, or a variation when parent_recipe_id is set",
		Tags:          []string{"Recipes"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/search",
		Summary:     "Search recipes",
		Description: "Full-text search over the caller's recipes",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe with its ingredient lines resolved and its parent",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Replaces a recipe's content. Lineage and cook history are kept.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecipe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Delete recipe",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipeVariations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}/variations",
		Summary:     "List variations",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListVariations)

	huma.Register(s.api, huma.Operation{
		OperationID: "cookRecipe",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes/{id}/cook",
		Summary:     "Cook recipe",
		Description: "Deducts the scaled ingredients from the pantry and adds any shortfall to the shopping list",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCookRecipe)
}

// === DTOs ===

// RecipeLine is one ingredient line of a recipe request.
type RecipeLine struct {
	IngredientID string  `json:"ingredient_id" minLength:"1" doc:"Ingredient ID"`
	Quantity     float64 `json:"quantity" minimum:"0" doc:"Quantity per recipe servings"`
	Unit         string  `json:"unit,omitempty" maxLength:"32" doc:"Unit as written"`
}

// RecipeRequest is the request body for creating or replacing a recipe.
type RecipeRequest struct {
	Title          string       `json:"title" minLength:"1" maxLength:"300" doc:"Recipe title"`
	Description    string       `json:"description,omitempty" maxLength:"5000" doc:"Short description"`
	Instructions   string       `json:"instructions,omitempty" doc:"Preparation steps, Markdown or HTML"`
	Servings       float64      `json:"servings" exclusiveMinimum:"0" doc:"Servings the line quantities make"`
	Lines          []RecipeLine `json:"lines,omitempty" maxItems:"200" doc:"Ingredient lines"`
	ParentRecipeID string       `json:"parent_recipe_id,omitempty" doc:"Recipe this is a variation of (create only)"`
}

func (r RecipeRequest) toService() service.RecipeRequest {
	lines := make([]service.LineRequest, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = service.LineRequest{IngredientID: l.IngredientID, Quantity: l.Quantity, Unit: l.Unit}
	}
	return service.RecipeRequest{
		Title:          r.Title,
		Description:    r.Description,
		Instructions:   r.Instructions,
		Servings:       r.Servings,
		Lines:          lines,
		ParentRecipeID: r.ParentRecipeID,
	}
}

// ListRecipesInput carries the bearer token.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          RecipeRequest
}

// RecipeIDInput identifies one recipe.
type RecipeIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeInput wraps the update request for Huma.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          RecipeRequest
}

// SearchRecipesInput contains search parameters.
type SearchRecipesInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" doc:"Search text; empty matches every recipe"`
	RootsOnly     bool   `query:"roots_only" doc:"Exclude variations"`
	Sort          string `query:"sort" enum:"relevance,title,recent" default:"relevance" doc:"Result order"`
	Limit         int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
	Offset        int    `query:"offset" minimum:"0" default:"0" doc:"Results to skip"`
}

// CookRequest is the request body for cooking a recipe.
type CookRequest struct {
	Servings        float64  `json:"servings" exclusiveMinimum:"0" doc:"Servings to cook"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty" doc:"Time spent cooking; recorded in history when positive"`
}

// CookInput wraps the cook request for Huma.
type CookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          CookRequest
}

// RecipeListResponse contains a list of recipes.
type RecipeListResponse struct {
	Recipes []*domain.Recipe `json:"recipes" doc:"Recipes"`
}

// RecipeListOutput wraps a recipe list for Huma.
type RecipeListOutput struct {
	Body RecipeListResponse
}

// RecipeOutput wraps a recipe for Huma.
type RecipeOutput struct {
	Body *domain.Recipe
}

// ResolvedLineResponse is an ingredient line with its definition.
type ResolvedLineResponse struct {
	IngredientID string             `json:"ingredient_id" doc:"Ingredient ID"`
	Quantity     float64            `json:"quantity" doc:"Quantity per recipe servings"`
	Unit         string             `json:"unit" doc:"Unit as written"`
	Ingredient   *domain.Ingredient `json:"ingredient,omitempty" doc:"Definition, absent when it no longer resolves"`
}

// RecipeDetailResponse is a recipe with lines resolved and its parent.
type RecipeDetailResponse struct {
	Recipe *domain.Recipe         `json:"recipe" doc:"Recipe"`
	Lines  []ResolvedLineResponse `json:"lines" doc:"Resolved ingredient lines"`
	Parent *domain.Recipe         `json:"parent,omitempty" doc:"Parent recipe, absent for roots or when deleted"`
}

// RecipeDetailOutput wraps a recipe detail for Huma.
type RecipeDetailOutput struct {
	Body RecipeDetailResponse
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.Result
}

// CookOutput wraps a cook result for Huma.
type CookOutput struct {
	Body *reconcile.CookResult
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*RecipeListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &RecipeListOutput{Body: RecipeListResponse{Recipes: nonNil(recipes)}}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Create(ctx, userID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &RecipeOutput{Body: recipe}, nil
}

func (s *Server) handleSearchRecipes(ctx context.Context, input *SearchRecipesInput) (*SearchOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	params := search.DefaultParams(userID, input.Query)
	params.RootsOnly = input.RootsOnly
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset

	result, err := s.services.Recipe.Search(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeIDInput) (*RecipeDetailOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	detail, err := s.services.Recipe.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	resp := RecipeDetailResponse{
		Recipe: detail.Recipe,
		Lines:  make([]ResolvedLineResponse, 0, len(detail.Lines)),
		Parent: detail.Parent,
	}
	for _, l := range detail.Lines {
		resp.Lines = append(resp.Lines, ResolvedLineResponse{
			IngredientID: l.IngredientID,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			Ingredient:   l.Ingredient,
		})
	}
	return &RecipeDetailOutput{Body: resp}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Update(ctx, userID, input.ID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &RecipeOutput{Body: recipe}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeIDInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Recipe deleted"}}, nil
}

func (s *Server) handleListVariations(ctx context.Context, input *RecipeIDInput) (*RecipeListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.ListVariations(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &RecipeListOutput{Body: RecipeListResponse{Recipes: nonNil(recipes)}}, nil
}

func (s *Server) handleCookRecipe(ctx context.Context, input *CookInput) (*CookOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Recipe.Cook(ctx, userID, input.ID, input.Body.Servings, input.Body.DurationMinutes)
	if err != nil {
		return nil, err
	}
	return &CookOutput{Body: result}, nil
}
