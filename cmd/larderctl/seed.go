package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/normalize"
	"github.com/larderapp/larder-server/internal/service"
)

func newSeedCmd() *cobra.Command {
	var (
		file     string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML fixture of ingredients, pantry, recipes and meal plan",
		Long: `Load a YAML fixture into one account, creating the account when it does not exist.
Seeding is repeatable: ingredients and recipes are matched by name and reused,
pantry quantities are set and meal slots are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			fx, err := parseFixture(f)
			f.Close()
			if err != nil {
				return err
			}

			if email != "" {
				fx.User.Email = email
			}
			if password != "" {
				fx.User.Password = password
			}
			if fx.User.Email == "" || fx.User.Password == "" {
				return errors.New("an account email and password are required (fixture user or --email/--password)")
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			s := &seeder{
				auth:        rt.auth,
				ingredients: rt.ingredients,
				pantry:      rt.pantry,
				recipes:     rt.recipes,
				mealPlan:    rt.mealPlan,
			}
			report, err := s.apply(cmd.Context(), fx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Seeded %s: %d ingredients (%d new), %d pantry rows, %d recipes (%d new), %d meal slots\n",
				fx.User.Email, report.Ingredients, report.NewIngredients, report.PantryRows,
				report.Recipes, report.NewRecipes, report.MealSlots)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Fixture file (YAML)")
	cmd.Flags().StringVar(&email, "email", "", "Account email, overrides the fixture")
	cmd.Flags().StringVar(&password, "password", "", "Account password, overrides the fixture")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

type seeder struct {
	auth        *service.AuthService
	ingredients *service.IngredientService
	pantry      *service.PantryService
	recipes     *service.RecipeService
	mealPlan    *service.MealPlanService
}

type seedReport struct {
	UserID         string
	Ingredients    int
	NewIngredients int
	PantryRows     int
	Recipes        int
	NewRecipes     int
	MealSlots      int
}

func (s *seeder) apply(ctx context.Context, fx *Fixture) (*seedReport, error) {
	userID, err := s.account(ctx, fx.User)
	if err != nil {
		return nil, err
	}
	report := &seedReport{UserID: userID}

	ingredientIDs := make(map[string]string, len(fx.Ingredients))
	for _, fi := range fx.Ingredients {
		key := normalize.Name(fi.Name)
		existing, err := s.ingredients.List(ctx, userID, fi.Name)
		if err != nil {
			return nil, fmt.Errorf("look up ingredient %q: %w", fi.Name, err)
		}
		if len(existing) > 0 {
			ingredientIDs[key] = existing[0].ID
		} else {
			ing, err := s.ingredients.Create(ctx, userID, service.IngredientRequest{
				Name:        fi.Name,
				DefaultUnit: domain.Unit(fi.Unit),
			})
			if err != nil {
				return nil, fmt.Errorf("create ingredient %q: %w", fi.Name, err)
			}
			ingredientIDs[key] = ing.ID
			report.NewIngredients++
		}
		report.Ingredients++
	}

	for name, qty := range fx.Pantry {
		if _, err := s.pantry.SetQuantity(ctx, userID, ingredientIDs[normalize.Name(name)], qty); err != nil {
			return nil, fmt.Errorf("set pantry %q: %w", name, err)
		}
		report.PantryRows++
	}

	recipeIDs, err := s.ownedRecipeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	var create func(recipes []FixtureRecipe, parentID string) error
	create = func(recipes []FixtureRecipe, parentID string) error {
		for _, fr := range recipes {
			key := normalize.Name(fr.Title)
			id, ok := recipeIDs[key]
			if !ok {
				req := service.RecipeRequest{
					Title:          fr.Title,
					Description:    fr.Description,
					Instructions:   fr.Instructions,
					Servings:       fr.Servings,
					ParentRecipeID: parentID,
					Lines:          make([]service.LineRequest, len(fr.Lines)),
				}
				for i, l := range fr.Lines {
					req.Lines[i] = service.LineRequest{
						IngredientID: ingredientIDs[normalize.Name(l.Ingredient)],
						Quantity:     l.Quantity,
						Unit:         l.Unit,
					}
				}
				recipe, err := s.recipes.Create(ctx, userID, req)
				if err != nil {
					return fmt.Errorf("create recipe %q: %w", fr.Title, err)
				}
				id = recipe.ID
				recipeIDs[key] = id
				report.NewRecipes++
			}
			report.Recipes++
			if err := create(fr.Variations, id); err != nil {
				return err
			}
		}
		return nil
	}
	if err := create(fx.Recipes, ""); err != nil {
		return nil, err
	}

	for _, row := range fx.MealPlan {
		_, err := s.mealPlan.Assign(ctx, userID, service.AssignRequest{
			Date:     row.Date,
			MealSlot: row.Slot,
			RecipeID: recipeIDs[normalize.Name(row.Recipe)],
		})
		if err != nil {
			return nil, fmt.Errorf("assign %s %s: %w", row.Date, row.Slot, err)
		}
		report.MealSlots++
	}

	return report, nil
}

// ownedRecipeIDs maps the normalized title of every recipe the user owns, roots and
// their variations, to its ID.
func (s *seeder) ownedRecipeIDs(ctx context.Context, userID string) (map[string]string, error) {
	roots, err := s.recipes.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	ids := make(map[string]string, len(roots))
	for _, root := range roots {
		ids[normalize.Name(root.Title)] = root.ID

		variations, err := s.recipes.ListVariations(ctx, userID, root.ID)
		if err != nil {
			return nil, fmt.Errorf("list variations of %q: %w", root.Title, err)
		}
		for _, v := range variations {
			ids[normalize.Name(v.Title)] = v.ID
		}
	}
	return ids, nil
}

// account signs in, registering the account first when the email is unknown.
func (s *seeder) account(ctx context.Context, u FixtureUser) (string, error) {
	resp, err := s.auth.Login(ctx, service.LoginRequest{Email: u.Email, Password: u.Password})
	if err == nil {
		return resp.User.ID, nil
	}
	if !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		return "", fmt.Errorf("sign in: %w", err)
	}

	displayName := u.DisplayName
	if displayName == "" {
		displayName = u.Email
	}
	resp, err = s.auth.Register(ctx, service.RegisterRequest{
		Email:       u.Email,
		Password:    u.Password,
		DisplayName: displayName,
	})
	if errors.Is(err, domainerrors.ErrAlreadyExists) {
		return "", errors.New("account exists and the password does not match")
	}
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return resp.User.ID, nil
}
