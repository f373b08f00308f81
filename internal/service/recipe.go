package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/id"
	"github.com/larderapp/larder-server/internal/metrics"
	"github.com/larderapp/larder-server/internal/normalize"
	"github.com/larderapp/larder-server/internal/reconcile"
	"github.com/larderapp/larder-server/internal/search"
	"github.com/larderapp/larder-server/internal/store"
)

// RecipeService manages recipes, their variations and the search index, and is the
// entry point for cooking.
type RecipeService struct {
	store   store.Store
	index   *search.Index
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewRecipeService creates a new recipe service. index and m may be nil; without an
// index, Search fails and writes skip indexing.
func NewRecipeService(store store.Store, index *search.Index, m *metrics.Metrics, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:   store,
		index:   index,
		metrics: m,
		logger:  loggerOrDefault(logger),
		now:     time.Now,
	}
}

// LineRequest is one ingredient line of a recipe request.
type LineRequest struct {
	IngredientID string  `json:"ingredient_id" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gte=0"`
	Unit         string  `json:"unit" validate:"max=32"`
}

// RecipeRequest creates or replaces a recipe. ParentRecipeID is only read on create.
type RecipeRequest struct {
	Title          string        `json:"title" validate:"required,max=300"`
	Description    string        `json:"description" validate:"max=5000"`
	Instructions   string        `json:"instructions" validate:"max=100000"`
	Servings       float64       `json:"servings" validate:"gt=0"`
	Lines          []LineRequest `json:"lines" validate:"max=200,dive"`
	ParentRecipeID string        `json:"parent_recipe_id"`
}

func (r *RecipeRequest) normalize() error {
	r.Title = normalize.DisplayName(r.Title)
	r.Instructions = normalize.Instructions(r.Instructions)
	return validate.Validate(r)
}

func (r *RecipeRequest) lines() []domain.IngredientLine {
	lines := make([]domain.IngredientLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.IngredientLine{IngredientID: l.IngredientID, Quantity: l.Quantity, Unit: l.Unit}
	}
	return lines
}

// ResolvedLine is an ingredient line joined with its ingredient, nil when unknown.
type ResolvedLine struct {
	domain.IngredientLine
	Ingredient *domain.Ingredient
}

// RecipeDetail is a recipe with its lines resolved and its parent, which is nil for a
// root or when the parent has been deleted.
type RecipeDetail struct {
	Recipe *domain.Recipe
	Lines  []ResolvedLine
	Parent *domain.Recipe
}

// Create stores a new recipe. A parent, when given, must be one of the caller's recipes;
// a variation of a variation is attached to the root instead.
func (s *RecipeService) Create(ctx context.Context, userID string, req RecipeRequest) (*domain.Recipe, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	recipeID, err := id.Generate(id.PrefixRecipe)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate recipe id")
	}

	now := s.now()
	recipe := &domain.Recipe{
		CreatedAt:    now,
		UpdatedAt:    now,
		ID:           recipeID,
		OwnerID:      userID,
		Title:        req.Title,
		Description:  req.Description,
		Instructions: req.Instructions,
		Lines:        req.lines(),
		Servings:     req.Servings,
	}

	var doc *search.RecipeDocument
	err = s.store.Update(ctx, func(tx store.Tx) error {
		if req.ParentRecipeID != "" {
			parent, err := ownedRecipe(ctx, tx, userID, req.ParentRecipeID)
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.NotFound("parent recipe not found")
			}
			if err != nil {
				return err
			}
			recipe.ParentRecipeID = parent.ID
			if parent.IsVariation() {
				recipe.ParentRecipeID = parent.ParentRecipeID
			}
		}

		if err := tx.CreateRecipe(ctx, recipe); err != nil {
			return err
		}

		var err error
		doc, err = s.document(ctx, tx, recipe)
		return err
	})
	if err != nil {
		return nil, translate(err, "recipe")
	}

	s.indexDocument(doc)
	s.logger.Info("recipe created",
		"recipe_id", recipe.ID,
		"user_id", userID,
		"parent_recipe_id", recipe.ParentRecipeID,
	)
	return recipe, nil
}

// Get returns a recipe with its lines and parent resolved.
func (s *RecipeService) Get(ctx context.Context, userID, recipeID string) (*RecipeDetail, error) {
	var detail *RecipeDetail
	err := s.store.View(ctx, func(tx store.Tx) error {
		recipe, err := ownedRecipe(ctx, tx, userID, recipeID)
		if err != nil {
			return err
		}
		detail = &RecipeDetail{Recipe: recipe, Lines: make([]ResolvedLine, 0, len(recipe.Lines))}

		resolver := newIngredientResolver(tx, userID)
		for _, line := range recipe.Lines {
			ing, err := resolver.resolve(ctx, line.IngredientID)
			if err != nil {
				return err
			}
			detail.Lines = append(detail.Lines, ResolvedLine{IngredientLine: line, Ingredient: ing})
		}

		if recipe.IsVariation() {
			parent, err := tx.GetRecipe(ctx, recipe.ParentRecipeID)
			switch {
			case store.IsNotFound(err):
			case err != nil:
				return err
			case parent.OwnerID == userID:
				detail.Parent = parent
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "recipe")
	}
	return detail, nil
}

// List returns the caller's root recipes, oldest first.
func (s *RecipeService) List(ctx context.Context, userID string) ([]*domain.Recipe, error) {
	var roots []*domain.Recipe
	err := s.store.View(ctx, func(tx store.Tx) error {
		all, err := tx.ListRecipes(ctx, userID)
		if err != nil {
			return err
		}
		for _, r := range all {
			if !r.IsVariation() {
				roots = append(roots, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "recipes")
	}
	return roots, nil
}

// ListVariations returns the variations of one of the caller's recipes.
func (s *RecipeService) ListVariations(ctx context.Context, userID, recipeID string) ([]*domain.Recipe, error) {
	var out []*domain.Recipe
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := ownedRecipe(ctx, tx, userID, recipeID); err != nil {
			return err
		}
		variations, err := tx.ListVariations(ctx, recipeID)
		if err != nil {
			return err
		}
		for _, v := range variations {
			if v.OwnerID == userID {
				out = append(out, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "recipe")
	}
	return out, nil
}

// Search runs an owner-scoped text search over the caller's recipes.
func (s *RecipeService) Search(ctx context.Context, userID string, params search.Params) (*search.Result, error) {
	if s.index == nil {
		return nil, domainerrors.Internal("search is unavailable")
	}
	params.OwnerID = userID

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search recipes")
	}
	return result, nil
}

// Update replaces the editable fields of a recipe. Lineage and cook history are kept.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID string, req RecipeRequest) (*domain.Recipe, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	var (
		recipe *domain.Recipe
		doc    *search.RecipeDocument
	)
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		recipe, err = ownedRecipe(ctx, tx, userID, recipeID)
		if err != nil {
			return err
		}

		recipe.Title = req.Title
		recipe.Description = req.Description
		recipe.Instructions = req.Instructions
		recipe.Servings = req.Servings
		recipe.Lines = req.lines()
		recipe.UpdatedAt = s.now()

		if err := tx.UpdateRecipe(ctx, recipe); err != nil {
			return err
		}
		doc, err = s.document(ctx, tx, recipe)
		return err
	})
	if err != nil {
		return nil, translate(err, "recipe")
	}

	s.indexDocument(doc)
	return recipe, nil
}

// Delete removes a recipe. Variations and meal plan entries keep their now dangling
// reference.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID string) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := ownedRecipe(ctx, tx, userID, recipeID); err != nil {
			return err
		}
		return tx.DeleteRecipe(ctx, recipeID)
	})
	if err != nil {
		return translate(err, "recipe")
	}

	if s.index != nil {
		if err := s.index.DeleteRecipe(recipeID); err != nil {
			s.logger.Warn("failed to remove recipe from search index", "recipe_id", recipeID, "error", err)
		}
	}
	s.logger.Info("recipe deleted", "recipe_id", recipeID, "user_id", userID)
	return nil
}

// Cook records one cooking of a recipe for servings servings: stock is deducted and any
// shortfall added to the shopping list. Servings is passed through unvalidated.
func (s *RecipeService) Cook(ctx context.Context, userID, recipeID string, servings float64, durationMinutes *float64) (*reconcile.CookResult, error) {
	var result *reconcile.CookResult
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		result, err = reconcile.Cook(ctx, tx, userID, reconcile.CookRequest{
			RecipeID:        recipeID,
			Servings:        servings,
			DurationMinutes: durationMinutes,
		}, s.now())
		return err
	})
	if err != nil {
		return nil, translate(err, "recipe")
	}

	var deducted, missing int
	for _, r := range result.Results {
		if r.Status == reconcile.StatusMissing {
			missing++
		} else {
			deducted++
		}
	}
	s.metrics.RecordCook(result.Success, deducted, missing)
	s.metrics.RecordShoppingMerge(metrics.PolicyAdditive, "added", missing)

	s.logger.Info("recipe cooked",
		"recipe_id", recipeID,
		"user_id", userID,
		"servings", servings,
		"success", result.Success,
		"missing", missing,
	)
	return result, nil
}

// Reindex rebuilds the search index from every stored recipe and returns the number of
// documents indexed.
func (s *RecipeService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, errors.New("search index not configured")
	}

	var docs []*search.RecipeDocument
	err := s.store.View(ctx, func(tx store.Tx) error {
		recipes, err := tx.ListAllRecipes(ctx)
		if err != nil {
			return err
		}
		docs = make([]*search.RecipeDocument, 0, len(recipes))
		for _, r := range recipes {
			doc, err := s.document(ctx, tx, r)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load recipes: %w", err)
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	if err := s.index.IndexRecipes(docs); err != nil {
		return 0, fmt.Errorf("index recipes: %w", err)
	}

	s.logger.Info("search index rebuilt", "recipes", len(docs))
	return len(docs), nil
}

// document builds the search document for r, resolving ingredient names.
func (s *RecipeService) document(ctx context.Context, tx store.Tx, r *domain.Recipe) (*search.RecipeDocument, error) {
	if s.index == nil {
		return nil, nil
	}

	resolver := newIngredientResolver(tx, r.OwnerID)
	names := make([]string, 0, len(r.Lines))
	for _, line := range r.Lines {
		ing, err := resolver.resolve(ctx, line.IngredientID)
		if err != nil {
			return nil, err
		}
		if ing != nil {
			names = append(names, ing.Name)
		}
	}
	return search.NewRecipeDocument(r, names), nil
}

// indexDocument indexes doc after its unit of work committed. A failure only costs
// search freshness, so it is logged rather than returned.
func (s *RecipeService) indexDocument(doc *search.RecipeDocument) {
	if s.index == nil || doc == nil {
		return
	}
	if err := s.index.IndexRecipe(doc); err != nil {
		s.logger.Warn("failed to index recipe", "recipe_id", doc.ID, "error", err)
	}
}

func ownedRecipe(ctx context.Context, tx store.Tx, userID, recipeID string) (*domain.Recipe, error) {
	recipe, err := tx.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, translate(err, "recipe")
	}
	if err := requireOwner(recipe.OwnerID, userID, "recipe"); err != nil {
		return nil, err
	}
	return recipe, nil
}
