package domain

import "time"

// ShoppingListEntry is an amount of an ingredient the owner needs to buy.
// There is at most one entry per (OwnerID, IngredientID).
type ShoppingListEntry struct {
	AddedAt      time.Time `json:"added_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	IngredientID string    `json:"ingredient_id"`
	Quantity     float64   `json:"quantity"`
}
