// Package id generates prefixed record identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Record prefixes. The prefix makes an ID self-describing in logs and URLs.
const (
	PrefixUser       = "usr"
	PrefixIngredient = "ing"
	PrefixPantry     = "pty"
	PrefixRecipe     = "rcp"
	PrefixMealPlan   = "mpl"
	PrefixShopping   = "shp"
	PrefixToken      = "tok"
)

// Generate returns prefix-nanoid, e.g. "rcp-V1StGXR8_Z5jdHi6B-myT".
// It fails only when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is Generate for callers that treat entropy failure as fatal.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}
