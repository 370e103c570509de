package models

import "time"

// Observation is a free-text note attached to a location id. The location id
// is treated as an opaque grouping key; nothing validates that it addresses a
// live location, so notes survive batch deletion as orphans.
type Observation struct {
	ID         string    `json:"id"`
	LocationID string    `json:"location_id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Text       string    `json:"observation"`
	CreatedAt  time.Time `json:"created_at"`
}
