package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/store"
)

const pantryColumns = `id, updated_at, owner_id, ingredient_id, quantity`

func scanPantryEntry(row scanner) (*domain.PantryEntry, error) {
	var (
		e         domain.PantryEntry
		updatedAt string
	)
	if err := row.Scan(&e.ID, &updatedAt, &e.OwnerID, &e.IngredientID, &e.Quantity); err != nil {
		return nil, err
	}
	var err error
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *tx) GetPantryEntry(ctx context.Context, ownerID, ingredientID string) (*domain.PantryEntry, error) {
	e, err := scanPantryEntry(t.tx.QueryRowContext(ctx,
		`SELECT `+pantryColumns+` FROM pantry_entries WHERE owner_id = ? AND ingredient_id = ?`,
		ownerID, ingredientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return e, err
}

func (t *tx) CreatePantryEntry(ctx context.Context, e *domain.PantryEntry) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO pantry_entries
		(id, updated_at, owner_id, ingredient_id, quantity) VALUES (?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.UpdatedAt), e.OwnerID, e.IngredientID, e.Quantity,
	)
	return mapExecErr(err)
}

func (t *tx) UpdatePantryEntry(ctx context.Context, e *domain.PantryEntry) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE pantry_entries SET
		updated_at = ?, owner_id = ?, ingredient_id = ?, quantity = ? WHERE id = ?`,
		formatTime(e.UpdatedAt), e.OwnerID, e.IngredientID, e.Quantity, e.ID,
	)
	if err != nil {
		return mapExecErr(err)
	}
	return requireAffected(res)
}

func (t *tx) ListPantry(ctx context.Context, ownerID string) ([]*domain.PantryEntry, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+pantryColumns+` FROM pantry_entries WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PantryEntry
	for rows.Next() {
		e, err := scanPantryEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
