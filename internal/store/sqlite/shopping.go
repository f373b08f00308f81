package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/store"
)

const shoppingColumns = `id, added_at, updated_at, owner_id, ingredient_id, quantity`

func scanShoppingListEntry(row scanner) (*domain.ShoppingListEntry, error) {
	var (
		e                  domain.ShoppingListEntry
		addedAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &addedAt, &updatedAt, &e.OwnerID, &e.IngredientID, &e.Quantity); err != nil {
		return nil, err
	}
	var err error
	if e.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *tx) getShoppingListEntry(ctx context.Context, query string, args ...any) (*domain.ShoppingListEntry, error) {
	e, err := scanShoppingListEntry(t.tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return e, err
}

func (t *tx) GetShoppingListEntry(ctx context.Context, id string) (*domain.ShoppingListEntry, error) {
	return t.getShoppingListEntry(ctx,
		`SELECT `+shoppingColumns+` FROM shopping_list_entries WHERE id = ?`, id)
}

func (t *tx) GetShoppingListEntryForIngredient(ctx context.Context, ownerID, ingredientID string) (*domain.ShoppingListEntry, error) {
	return t.getShoppingListEntry(ctx,
		`SELECT `+shoppingColumns+` FROM shopping_list_entries WHERE owner_id = ? AND ingredient_id = ?`,
		ownerID, ingredientID)
}

func (t *tx) CreateShoppingListEntry(ctx context.Context, e *domain.ShoppingListEntry) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO shopping_list_entries (`+shoppingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.AddedAt), formatTime(e.UpdatedAt), e.OwnerID, e.IngredientID, e.Quantity,
	)
	return mapExecErr(err)
}

func (t *tx) UpdateShoppingListEntry(ctx context.Context, e *domain.ShoppingListEntry) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE shopping_list_entries SET
		updated_at = ?, owner_id = ?, ingredient_id = ?, quantity = ? WHERE id = ?`,
		formatTime(e.UpdatedAt), e.OwnerID, e.IngredientID, e.Quantity, e.ID,
	)
	if err != nil {
		return mapExecErr(err)
	}
	return requireAffected(res)
}

func (t *tx) DeleteShoppingListEntry(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM shopping_list_entries WHERE id = ?`, id)
	return err
}

func (t *tx) ListShoppingList(ctx context.Context, ownerID string) ([]*domain.ShoppingListEntry, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+shoppingColumns+` FROM shopping_list_entries WHERE owner_id = ? ORDER BY added_at, id`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ShoppingListEntry
	for rows.Next() {
		e, err := scanShoppingListEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
