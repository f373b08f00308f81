package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/normalize"
)

// Fixture is a seed file. Recipes, pantry rows and meal slots refer to ingredients and
// recipes by name; names are matched on their normalized form.
type Fixture struct {
	User        FixtureUser          `yaml:"user"`
	Ingredients []FixtureIngredient  `yaml:"ingredients"`
	Pantry      map[string]float64   `yaml:"pantry"`
	Recipes     []FixtureRecipe      `yaml:"recipes"`
	MealPlan    []FixtureMealPlanRow `yaml:"meal_plan"`
}

// FixtureUser is the account the fixture is loaded into. Flags override it.
type FixtureUser struct {
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"display_name"`
}

// FixtureIngredient is one catalog entry.
type FixtureIngredient struct {
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

// FixtureRecipe is a recipe with its variations nested below it.
type FixtureRecipe struct {
	Title        string          `yaml:"title"`
	Description  string          `yaml:"description"`
	Instructions string          `yaml:"instructions"`
	Servings     float64         `yaml:"servings"`
	Lines        []FixtureLine   `yaml:"lines"`
	Variations   []FixtureRecipe `yaml:"variations"`
}

// FixtureLine is one ingredient line. Quantity is per the recipe's servings.
type FixtureLine struct {
	Ingredient string  `yaml:"ingredient"`
	Quantity   float64 `yaml:"quantity"`
	Unit       string  `yaml:"unit"`
}

// FixtureMealPlanRow assigns a recipe to a slot.
type FixtureMealPlanRow struct {
	Date   string `yaml:"date"`
	Slot   string `yaml:"slot"`
	Recipe string `yaml:"recipe"`
}

// parseFixture decodes a fixture and checks that every name reference resolves.
// Unknown keys are rejected so typos do not silently drop data.
func parseFixture(r io.Reader) (*Fixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var fx Fixture
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("fixture is empty")
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) validate() error {
	var errs []error

	ingredients := make(map[string]bool, len(fx.Ingredients))
	for i, ing := range fx.Ingredients {
		key := normalize.Name(ing.Name)
		if key == "" {
			errs = append(errs, fmt.Errorf("ingredients[%d]: name is required", i))
			continue
		}
		if ingredients[key] {
			errs = append(errs, fmt.Errorf("ingredients[%d]: duplicate name %q", i, ing.Name))
		}
		ingredients[key] = true
		if _, err := domain.ParseUnit(ing.Unit); err != nil {
			errs = append(errs, fmt.Errorf("ingredients[%d]: %w", i, err))
		}
	}

	for name, qty := range fx.Pantry {
		if !ingredients[normalize.Name(name)] {
			errs = append(errs, fmt.Errorf("pantry: unknown ingredient %q", name))
		}
		if qty < 0 {
			errs = append(errs, fmt.Errorf("pantry: negative quantity for %q", name))
		}
	}

	titles := make(map[string]bool)
	var walk func(path string, recipes []FixtureRecipe)
	walk = func(path string, recipes []FixtureRecipe) {
		for i, r := range recipes {
			at := fmt.Sprintf("%s[%d]", path, i)
			key := normalize.Name(r.Title)
			switch {
			case key == "":
				errs = append(errs, fmt.Errorf("%s: title is required", at))
			case titles[key]:
				errs = append(errs, fmt.Errorf("%s: duplicate title %q", at, r.Title))
			}
			titles[key] = true
			if r.Servings <= 0 {
				errs = append(errs, fmt.Errorf("%s: servings must be positive", at))
			}
			for j, l := range r.Lines {
				if !ingredients[normalize.Name(l.Ingredient)] {
					errs = append(errs, fmt.Errorf("%s.lines[%d]: unknown ingredient %q", at, j, l.Ingredient))
				}
				if l.Quantity < 0 {
					errs = append(errs, fmt.Errorf("%s.lines[%d]: negative quantity", at, j))
				}
			}
			walk(at+".variations", r.Variations)
		}
	}
	walk("recipes", fx.Recipes)

	for i, row := range fx.MealPlan {
		if _, err := time.Parse(time.DateOnly, row.Date); err != nil {
			errs = append(errs, fmt.Errorf("meal_plan[%d]: date must be YYYY-MM-DD", i))
		}
		if normalize.DisplayName(row.Slot) == "" {
			errs = append(errs, fmt.Errorf("meal_plan[%d]: slot is required", i))
		}
		if !titles[normalize.Name(row.Recipe)] {
			errs = append(errs, fmt.Errorf("meal_plan[%d]: unknown recipe %q", i, row.Recipe))
		}
	}

	return errors.Join(errs...)
}
