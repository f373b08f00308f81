// Package service implements the application operations behind the HTTP API. Every
// operation takes the caller's user ID explicitly and runs in a single store unit of work.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/store"
	"github.com/larderapp/larder-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// MaxPlanRangeDays bounds meal plan queries and shopping-list generation.
const MaxPlanRangeDays = 366

// translate maps storage failures to domain errors. Domain errors pass through unchanged.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Wrapf(err, domainerrors.CodeAlreadyExists, "%s already exists", what)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Wrapf(err, domainerrors.CodeValidation, "invalid %s", what)
	case errors.Is(err, store.ErrConflict):
		return domainerrors.Wrap(err, domainerrors.CodeConflict, "concurrent update, try again")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "%s: storage failure", what)
	}
}

// requireOwner fails with Forbidden when a record belongs to someone else.
func requireOwner(ownerID, userID, what string) error {
	if ownerID != userID {
		return domainerrors.Forbidden(what + " belongs to another user")
	}
	return nil
}

// checkRange validates an inclusive YYYY-MM-DD range.
func checkRange(start, end string) error {
	s, err := parseDate("start", start)
	if err != nil {
		return err
	}
	e, err := parseDate("end", end)
	if err != nil {
		return err
	}
	if e.Before(s) {
		return domainerrors.Validation("end date is before start date")
	}
	if days := int(e.Sub(s).Hours()/24) + 1; days > MaxPlanRangeDays {
		return domainerrors.Validationf("date range spans %d days, at most %d allowed", days, MaxPlanRangeDays)
	}
	return nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, domainerrors.ValidationWithDetails("invalid date",
			map[string]string{field: fmt.Sprintf("%q must be a date formatted YYYY-MM-DD", s)})
	}
	return t, nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
