package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/normalize"
	"github.com/larderapp/larder-server/internal/store"
)

const ingredientColumns = `id, created_at, updated_at, owner_id, name, default_unit`

func scanIngredient(row scanner) (*domain.Ingredient, error) {
	var (
		ing                  domain.Ingredient
		createdAt, updatedAt string
		unit                 string
	)
	if err := row.Scan(&ing.ID, &createdAt, &updatedAt, &ing.OwnerID, &ing.Name, &unit); err != nil {
		return nil, err
	}
	ing.DefaultUnit = domain.Unit(unit)

	var err error
	if ing.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if ing.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &ing, nil
}

func (t *tx) queryIngredients(ctx context.Context, query string, args ...any) ([]*domain.Ingredient, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

func (t *tx) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO ingredients
		(id, created_at, updated_at, owner_id, name, name_norm, default_unit)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ing.ID, formatTime(ing.CreatedAt), formatTime(ing.UpdatedAt),
		ing.OwnerID, ing.Name, normalize.Name(ing.Name), string(ing.DefaultUnit),
	)
	return mapExecErr(err)
}

func (t *tx) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	ing, err := scanIngredient(t.tx.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return ing, err
}

func (t *tx) UpdateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE ingredients SET
		updated_at = ?, owner_id = ?, name = ?, name_norm = ?, default_unit = ?
		WHERE id = ?`,
		formatTime(ing.UpdatedAt), ing.OwnerID, ing.Name, normalize.Name(ing.Name),
		string(ing.DefaultUnit), ing.ID,
	)
	if err != nil {
		return mapExecErr(err)
	}
	return requireAffected(res)
}

func (t *tx) DeleteIngredient(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
	return err
}

func (t *tx) ListIngredients(ctx context.Context, ownerID string) ([]*domain.Ingredient, error) {
	return t.queryIngredients(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE owner_id = ? ORDER BY name_norm, id`, ownerID)
}

func (t *tx) FindIngredientsByName(ctx context.Context, ownerID, name string) ([]*domain.Ingredient, error) {
	norm := normalize.Name(name)
	if norm == "" {
		return nil, nil
	}
	return t.queryIngredients(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE owner_id = ? AND name_norm = ? ORDER BY id`,
		ownerID, norm)
}
