package common

import (
	"github.com/google/uuid"
)

// NewID generates a plain UUID string for users, pendencias and observations.
// These ids travel to the frontend and are kept unprefixed for compatibility
// with records created by earlier releases.
func NewID() string {
	return uuid.New().String()
}

// NewBatchID generates a unique KML batch ID with the "kml_" prefix
// Format: kml_<uuid>
func NewBatchID() string {
	return "kml_" + uuid.New().String()
}
