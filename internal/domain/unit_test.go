package domain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit_Valid(t *testing.T) {
	for _, u := range Units {
		assert.True(t, u.Valid(), "unit %q", u)
	}
	assert.False(t, Unit("cups").Valid())
	assert.False(t, Unit("").Valid())
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("tbsp")
	require.NoError(t, err)
	assert.Equal(t, UnitTablespoons, u)

	_, err = ParseUnit("GRAMS")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, 28, d.Day())

	for _, bad := range []string{"2026-2-28", "28/02/2026", "2026-02-30", ""} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestCompareMealPlanEntries(t *testing.T) {
	entries := []*MealPlanEntry{
		{Date: "2026-03-02", MealSlot: MealSlotBreakfast},
		{Date: "2026-03-01", MealSlot: "snack"},
		{Date: "2026-03-01", MealSlot: MealSlotDinner},
		{Date: "2026-03-01", MealSlot: MealSlotBreakfast},
		{Date: "2026-03-01", MealSlot: MealSlotLunch},
	}
	slices.SortFunc(entries, CompareMealPlanEntries)

	var got []string
	for _, e := range entries {
		got = append(got, e.Date+"/"+e.MealSlot)
	}
	assert.Equal(t, []string{
		"2026-03-01/breakfast",
		"2026-03-01/lunch",
		"2026-03-01/dinner",
		"2026-03-01/snack",
		"2026-03-02/breakfast",
	}, got)
}
