package domain

import "fmt"

// Unit is the measurement unit attached to an ingredient definition.
type Unit string

// Supported units. The set is closed.
const (
	UnitGrams       Unit = "grams"
	UnitMilliliters Unit = "ml"
	UnitCount       Unit = "count"
	UnitTeaspoons   Unit = "tsp"
	UnitTablespoons Unit = "tbsp"
)

// Units lists every supported unit in display order.
var Units = []Unit{UnitGrams, UnitMilliliters, UnitCount, UnitTeaspoons, UnitTablespoons}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	switch u {
	case UnitGrams, UnitMilliliters, UnitCount, UnitTeaspoons, UnitTablespoons:
		return true
	}
	return false
}

// ParseUnit converts s to a Unit, rejecting anything outside the supported set.
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if !u.Valid() {
		return "", fmt.Errorf("unknown unit %q", s)
	}
	return u, nil
}
