package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/store"
)

const mealPlanColumns = `id, created_at, updated_at, owner_id, recipe_id, date, meal_slot`

func scanMealPlanEntry(row scanner) (*domain.MealPlanEntry, error) {
	var (
		e                    domain.MealPlanEntry
		createdAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &createdAt, &updatedAt, &e.OwnerID, &e.RecipeID, &e.Date, &e.MealSlot); err != nil {
		return nil, err
	}
	var err error
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *tx) getMealPlanEntry(ctx context.Context, query string, args ...any) (*domain.MealPlanEntry, error) {
	e, err := scanMealPlanEntry(t.tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return e, err
}

func (t *tx) CreateMealPlanEntry(ctx context.Context, e *domain.MealPlanEntry) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO meal_plan_entries (`+mealPlanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.CreatedAt), formatTime(e.UpdatedAt), e.OwnerID, e.RecipeID, e.Date, e.MealSlot,
	)
	return mapExecErr(err)
}

func (t *tx) GetMealPlanEntry(ctx context.Context, id string) (*domain.MealPlanEntry, error) {
	return t.getMealPlanEntry(ctx, `SELECT `+mealPlanColumns+` FROM meal_plan_entries WHERE id = ?`, id)
}

func (t *tx) UpdateMealPlanEntry(ctx context.Context, e *domain.MealPlanEntry) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE meal_plan_entries SET
		updated_at = ?, owner_id = ?, recipe_id = ?, date = ?, meal_slot = ? WHERE id = ?`,
		formatTime(e.UpdatedAt), e.OwnerID, e.RecipeID, e.Date, e.MealSlot, e.ID,
	)
	if err != nil {
		return mapExecErr(err)
	}
	return requireAffected(res)
}

func (t *tx) DeleteMealPlanEntry(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM meal_plan_entries WHERE id = ?`, id)
	return err
}

func (t *tx) GetMealPlanSlot(ctx context.Context, ownerID, date, slot string) (*domain.MealPlanEntry, error) {
	return t.getMealPlanEntry(ctx,
		`SELECT `+mealPlanColumns+` FROM meal_plan_entries WHERE owner_id = ? AND date = ? AND meal_slot = ?`,
		ownerID, date, slot)
}

// ListMealPlan relies on DateLayout sorting lexicographically in calendar order.
func (t *tx) ListMealPlan(ctx context.Context, ownerID, start, end string) ([]*domain.MealPlanEntry, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+mealPlanColumns+` FROM meal_plan_entries
		WHERE owner_id = ? AND date >= ? AND date <= ?`, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.MealPlanEntry
	for rows.Next() {
		e, err := scanMealPlanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, domain.CompareMealPlanEntries)
	return out, nil
}
