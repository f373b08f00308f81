package domain

import "time"

// PantryEntry is the quantity on hand of one ingredient for one owner.
// There is at most one entry per (OwnerID, IngredientID). A zero quantity is a valid,
// persisted state; a missing entry also means nothing is on hand.
type PantryEntry struct {
	UpdatedAt    time.Time `json:"updated_at"`
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	IngredientID string    `json:"ingredient_id"`
	Quantity     float64   `json:"quantity"`
}
