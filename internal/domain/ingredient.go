package domain

import "time"

// Ingredient is an owner-scoped ingredient definition.
// Names are not unique; other records refer to ingredients by ID only, and a deleted
// ingredient simply stops resolving.
type Ingredient struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	DefaultUnit Unit      `json:"default_unit"`
}
