package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, email, display_name, password_hash`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u                    domain.User
		createdAt, updatedAt string
	)
	if err := row.Scan(&u.ID, &createdAt, &updatedAt, &u.Email, &u.DisplayName, &u.PasswordHash); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. Emails are unique case-insensitively.
func (t *tx) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO users
		(id, created_at, updated_at, email, email_lower, display_name, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
		u.Email, domain.NormalizeEmail(u.Email), u.DisplayName, u.PasswordHash,
	)
	return mapExecErr(err)
}

// GetUser returns the user with the given ID.
func (t *tx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(t.tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return u, err
}

// GetUserByEmail looks a user up by normalized email.
func (t *tx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(t.tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, domain.NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return u, err
}
