package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/store"
)

// recipeColumns must match the scan order in scanRecipe.
const recipeColumns = `id, created_at, updated_at, last_cooked_at, owner_id, title,
	description, instructions, parent_recipe_id, servings, lines_json, history_json`

func scanRecipe(row scanner) (*domain.Recipe, error) {
	var (
		r                    domain.Recipe
		createdAt, updatedAt string
		lastCookedAt, parent sql.NullString
		linesJSON, histJSON  string
	)
	err := row.Scan(
		&r.ID, &createdAt, &updatedAt, &lastCookedAt, &r.OwnerID, &r.Title,
		&r.Description, &r.Instructions, &parent, &r.Servings, &linesJSON, &histJSON,
	)
	if err != nil {
		return nil, err
	}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if r.LastCookedAt, err = parseNullableTime(lastCookedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		r.ParentRecipeID = parent.String
	}

	if err := json.Unmarshal([]byte(linesJSON), &r.Lines); err != nil {
		return nil, fmt.Errorf("decode recipe lines: %w", err)
	}
	if err := json.Unmarshal([]byte(histJSON), &r.History); err != nil {
		return nil, fmt.Errorf("decode recipe history: %w", err)
	}
	return &r, nil
}

func encodeRecipeLists(r *domain.Recipe) (lines, history string, err error) {
	ls := r.Lines
	if ls == nil {
		ls = []domain.IngredientLine{}
	}
	hs := r.History
	if hs == nil {
		hs = []domain.CookEvent{}
	}
	lb, err := json.Marshal(ls)
	if err != nil {
		return "", "", fmt.Errorf("encode recipe lines: %w", err)
	}
	hb, err := json.Marshal(hs)
	if err != nil {
		return "", "", fmt.Errorf("encode recipe history: %w", err)
	}
	return string(lb), string(hb), nil
}

func (t *tx) queryRecipes(ctx context.Context, query string, args ...any) ([]*domain.Recipe, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *tx) CreateRecipe(ctx context.Context, r *domain.Recipe) error {
	lines, history, err := encodeRecipeLists(r)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `INSERT INTO recipes (`+recipeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.CreatedAt), formatTime(r.UpdatedAt), nullTimeString(r.LastCookedAt),
		r.OwnerID, r.Title, r.Description, r.Instructions, nullString(r.ParentRecipeID),
		r.Servings, lines, history,
	)
	return mapExecErr(err)
}

func (t *tx) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	r, err := scanRecipe(t.tx.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return r, err
}

func (t *tx) UpdateRecipe(ctx context.Context, r *domain.Recipe) error {
	lines, history, err := encodeRecipeLists(r)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `UPDATE recipes SET
		updated_at = ?, last_cooked_at = ?, owner_id = ?, title = ?, description = ?,
		instructions = ?, parent_recipe_id = ?, servings = ?, lines_json = ?, history_json = ?
		WHERE id = ?`,
		formatTime(r.UpdatedAt), nullTimeString(r.LastCookedAt), r.OwnerID, r.Title,
		r.Description, r.Instructions, nullString(r.ParentRecipeID), r.Servings,
		lines, history, r.ID,
	)
	if err != nil {
		return mapExecErr(err)
	}
	return requireAffected(res)
}

func (t *tx) DeleteRecipe(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	return err
}

func (t *tx) ListRecipes(ctx context.Context, ownerID string) ([]*domain.Recipe, error) {
	return t.queryRecipes(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
}

func (t *tx) ListVariations(ctx context.Context, parentID string) ([]*domain.Recipe, error) {
	if parentID == "" {
		return nil, nil
	}
	return t.queryRecipes(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE parent_recipe_id = ? ORDER BY created_at, id`, parentID)
}

func (t *tx) ListAllRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	return t.queryRecipes(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY id`)
}
