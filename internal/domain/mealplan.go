package domain

import (
	"cmp"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by meal plans. Lexicographic order of
// dates in this layout equals calendar order.
const DateLayout = time.DateOnly

// Conventional meal slots. Slots are free-form labels; these are the ones clients offer.
const (
	MealSlotBreakfast = "breakfast"
	MealSlotLunch     = "lunch"
	MealSlotDinner    = "dinner"
)

// MealPlanEntry assigns a recipe to a (date, slot) for an owner.
type MealPlanEntry struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	RecipeID  string    `json:"recipe_id"`
	Date      string    `json:"date"`
	MealSlot  string    `json:"meal_slot"`
}

// ParseDate validates s as a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// slotRank orders the conventional slots by time of day; other labels sort after them.
func slotRank(slot string) int {
	switch slot {
	case MealSlotBreakfast:
		return 0
	case MealSlotLunch:
		return 1
	case MealSlotDinner:
		return 2
	default:
		return 3
	}
}

// CompareMealPlanEntries orders entries by date, then slot (breakfast, lunch, dinner,
// then any other label alphabetically).
func CompareMealPlanEntries(a, b *MealPlanEntry) int {
	if c := cmp.Compare(a.Date, b.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(slotRank(a.MealSlot), slotRank(b.MealSlot)); c != 0 {
		return c
	}
	return cmp.Compare(a.MealSlot, b.MealSlot)
}
