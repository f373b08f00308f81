// Package store defines the persistence contract used by services and the
// reconciliation engine. Backends live in subpackages (kv for Badger, sqlite for SQLite)
// and are interchangeable.
package store

import (
	"context"

	"github.com/larderapp/larder-server/internal/domain"
)

// Backend names accepted by configuration.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Store hands out units of work. Update runs fn in a read-write transaction that commits
// only if fn returns nil; View runs fn against a read-only snapshot. Writes made through a
// Tx are visible to later reads in the same Tx.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Wipe deletes every record.
	Wipe(ctx context.Context) error
	Close() error
}

// Tx is the set of record operations available inside a unit of work.
// Get methods return ErrNotFound when the record is absent. Create methods return
// ErrAlreadyExists on an ID collision or a uniqueness violation.
type Tx interface {
	UserTx
	IngredientTx
	PantryTx
	RecipeTx
	MealPlanTx
	ShoppingListTx
}

// UserTx covers accounts.
type UserTx interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// IngredientTx covers ingredient definitions.
type IngredientTx interface {
	CreateIngredient(ctx context.Context, ing *domain.Ingredient) error
	GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, ing *domain.Ingredient) error
	// DeleteIngredient is idempotent and never touches records that reference the ingredient.
	DeleteIngredient(ctx context.Context, id string) error
	ListIngredients(ctx context.Context, ownerID string) ([]*domain.Ingredient, error)
	// FindIngredientsByName matches on normalize.Name of the given name.
	FindIngredientsByName(ctx context.Context, ownerID, name string) ([]*domain.Ingredient, error)
}

// PantryTx covers pantry entries, unique per (owner, ingredient).
type PantryTx interface {
	GetPantryEntry(ctx context.Context, ownerID, ingredientID string) (*domain.PantryEntry, error)
	CreatePantryEntry(ctx context.Context, e *domain.PantryEntry) error
	UpdatePantryEntry(ctx context.Context, e *domain.PantryEntry) error
	ListPantry(ctx context.Context, ownerID string) ([]*domain.PantryEntry, error)
}

// RecipeTx covers recipes.
type RecipeTx interface {
	CreateRecipe(ctx context.Context, r *domain.Recipe) error
	GetRecipe(ctx context.Context, id string) (*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, r *domain.Recipe) error
	// DeleteRecipe is idempotent; variations and meal plans keep their dangling reference.
	DeleteRecipe(ctx context.Context, id string) error
	ListRecipes(ctx context.Context, ownerID string) ([]*domain.Recipe, error)
	ListVariations(ctx context.Context, parentID string) ([]*domain.Recipe, error)
	ListAllRecipes(ctx context.Context) ([]*domain.Recipe, error)
}

// MealPlanTx covers meal plan entries.
type MealPlanTx interface {
	CreateMealPlanEntry(ctx context.Context, e *domain.MealPlanEntry) error
	GetMealPlanEntry(ctx context.Context, id string) (*domain.MealPlanEntry, error)
	UpdateMealPlanEntry(ctx context.Context, e *domain.MealPlanEntry) error
	DeleteMealPlanEntry(ctx context.Context, id string) error
	// GetMealPlanSlot returns the entry occupying (owner, date, slot).
	GetMealPlanSlot(ctx context.Context, ownerID, date, slot string) (*domain.MealPlanEntry, error)
	// ListMealPlan returns entries with start <= date <= end, ordered by date then slot.
	ListMealPlan(ctx context.Context, ownerID, start, end string) ([]*domain.MealPlanEntry, error)
}

// ShoppingListTx covers shopping list entries, unique per (owner, ingredient).
type ShoppingListTx interface {
	GetShoppingListEntry(ctx context.Context, id string) (*domain.ShoppingListEntry, error)
	GetShoppingListEntryForIngredient(ctx context.Context, ownerID, ingredientID string) (*domain.ShoppingListEntry, error)
	CreateShoppingListEntry(ctx context.Context, e *domain.ShoppingListEntry) error
	UpdateShoppingListEntry(ctx context.Context, e *domain.ShoppingListEntry) error
	DeleteShoppingListEntry(ctx context.Context, id string) error
	// ListShoppingList returns entries ordered by AddedAt.
	ListShoppingList(ctx context.Context, ownerID string) ([]*domain.ShoppingListEntry, error)
}
