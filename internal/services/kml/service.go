package kml

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/common"
	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// previewLocations caps the per-upload location preview in the response.
const previewLocations = 10

// Service ingests uploaded KML files into the batch store.
type Service struct {
	storage interfaces.KMLStorage
	logger  arbor.ILogger
}

// NewService creates a new KML ingestion service
func NewService(storage interfaces.KMLStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// IngestResult carries the persisted batch plus a truncated location preview
// for presentation.
type IngestResult struct {
	Batch   *models.KMLBatch
	Preview []models.LocationRecord
}

// Ingest validates and parses raw upload bytes and persists the resulting
// batch. The extension gate runs before any content inspection. Failures are
// ErrUnsupportedExtension, *XMLParseError or *NoValidLocationsError; storage
// errors pass through wrapped.
func (s *Service) Ingest(ctx context.Context, fileBytes []byte, declaredFilename, uploadedBy string) (*IngestResult, error) {
	if !strings.HasSuffix(strings.ToLower(declaredFilename), ".kml") {
		return nil, ErrUnsupportedExtension
	}

	locations, skipped, err := ParseLocations(fileBytes)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("filename", declaredFilename).
			Str("uploaded_by", uploadedBy).
			Msg("KML ingestion failed")
		return nil, err
	}

	batch := &models.KMLBatch{
		ID:                common.NewBatchID(),
		Filename:          declaredFilename,
		UploadedBy:        uploadedBy,
		UploadedAt:        time.Now().UTC(),
		Locations:         locations,
		TotalLocations:    len(locations),
		SkippedPlacemarks: skipped,
		Status:            models.KMLStatusActive,
	}

	if err := s.storage.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("batch_id", batch.ID).
		Str("filename", declaredFilename).
		Int("locations", len(locations)).
		Int("skipped_placemarks", skipped).
		Msg("KML batch ingested")

	preview := locations
	if len(preview) > previewLocations {
		preview = preview[:previewLocations]
	}

	return &IngestResult{Batch: batch, Preview: preview}, nil
}

// DeleteBatch hard-deletes a batch and all its locations. Observations keyed
// to the batch's locations are not cascaded; orphans are accepted.
func (s *Service) DeleteBatch(ctx context.Context, batchID string) error {
	if err := s.storage.DeleteBatch(ctx, batchID); err != nil {
		return err
	}

	s.logger.Info().Str("batch_id", batchID).Msg("KML batch deleted")
	return nil
}
