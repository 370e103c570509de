package models

import "time"

// KML batch states. Only active batches participate in search and listing.
const (
	KMLStatusActive   = "active"
	KMLStatusInactive = "inactive"
)

// LocationRecord is one placemark extracted from one ingested KML file.
// Every persisted record carries valid coordinates; placemarks without any
// valid coordinate tuple are dropped during ingestion, never defaulted.
type LocationRecord struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`  // [-90, 90]
	Longitude   float64 `json:"longitude"` // [-180, 180]
	// CoordinateCount is set only when the source geometry supplied multiple
	// coordinate tuples, in which case Latitude/Longitude are the arithmetic
	// mean of all valid tuples.
	CoordinateCount int `json:"coordinate_count,omitempty"`
}

// KMLBatch is the ingestion result of one uploaded file.
type KMLBatch struct {
	ID             string           `json:"id"`
	Filename       string           `json:"filename"`
	UploadedBy     string           `json:"uploaded_by"`
	UploadedAt     time.Time        `json:"uploaded_at"`
	Locations      []LocationRecord `json:"locations"`
	TotalLocations int              `json:"total_locations"`
	// SkippedPlacemarks counts placemarks that yielded no record (missing or
	// wholly invalid geometry). Informational; does not affect accept/reject.
	SkippedPlacemarks int    `json:"skipped_placemarks,omitempty"`
	Status            string `json:"status"`
}

// DecoratedLocation is a LocationRecord annotated with its owning batch's
// provenance, used for map listing.
type DecoratedLocation struct {
	LocationRecord
	SourceFile string `json:"source_file"`
	UploadedBy string `json:"uploaded_by"`
}

// LocationSearchResult is an ephemeral search hit. The ID is derived from the
// owning batch id and the location's position within that batch, so repeated
// searches return the same id for the same location.
type LocationSearchResult struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	SourceFile  string  `json:"source_file"`
	UploadedBy  string  `json:"uploaded_by"`
}
