package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/common"
	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// maxSearchResults is the hard ceiling on search hits regardless of the
// requested limit. Bounds per-query cost against large corpora.
const maxSearchResults = 50

// minQueryLength is the minimum trimmed query length accepted by Search.
const minQueryLength = 2

var (
	// ErrQueryTooShort rejects queries below the minimum length.
	ErrQueryTooShort = errors.New("query deve ter pelo menos 2 caracteres")
	// ErrEmptyObservation rejects observations that are empty after trimming.
	ErrEmptyObservation = errors.New("observação não pode estar vazia")
	// ErrObservationForbidden rejects deletion by someone who is neither the
	// author nor an admin.
	ErrObservationForbidden = errors.New("você só pode excluir suas próprias observações")
)

// Service answers location searches and manages location annotations. Every
// call re-reads the active-batch corpus from storage; no index is maintained,
// so there is nothing to invalidate.
type Service struct {
	batches      interfaces.KMLStorage
	observations interfaces.ObservationStorage
	logger       arbor.ILogger
}

// NewService creates a new location search service
func NewService(batches interfaces.KMLStorage, observations interfaces.ObservationStorage, logger arbor.ILogger) *Service {
	return &Service{
		batches:      batches,
		observations: observations,
		logger:       logger,
	}
}

// Search scans every active batch in storage order and returns locations
// whose name or description contains the query, case-insensitively. Results
// are capped at min(limit, 50). Result ids are derived from the owning batch
// id and the location's position within that batch, so the same location
// keeps the same id across repeated searches.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.LocationSearchResult, error) {
	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < minQueryLength {
		return nil, ErrQueryTooShort
	}

	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	needle := strings.ToLower(trimmed)

	batches, err := s.batches.ListActiveBatches(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.LocationSearchResult, 0, limit)
	for _, batch := range batches {
		for i := range batch.Locations {
			loc := &batch.Locations[i]
			if !strings.Contains(strings.ToLower(loc.Name), needle) &&
				!strings.Contains(strings.ToLower(loc.Description), needle) {
				continue
			}

			results = append(results, models.LocationSearchResult{
				ID:          fmt.Sprintf("%s_%d", batch.ID, i),
				Name:        loc.Name,
				Description: loc.Description,
				Latitude:    loc.Latitude,
				Longitude:   loc.Longitude,
				SourceFile:  batch.Filename,
				UploadedBy:  batch.UploadedBy,
			})

			if len(results) >= limit {
				return results, nil
			}
		}
	}

	return results, nil
}

// ListLocations flattens every active batch into a single unbounded slice
// decorated with provenance, for map display. Pagination, if needed, is the
// caller's concern.
func (s *Service) ListLocations(ctx context.Context) ([]models.DecoratedLocation, error) {
	batches, err := s.batches.ListActiveBatches(ctx)
	if err != nil {
		return nil, err
	}

	var all []models.DecoratedLocation
	for _, batch := range batches {
		for i := range batch.Locations {
			all = append(all, models.DecoratedLocation{
				LocationRecord: batch.Locations[i],
				SourceFile:     batch.Filename,
				UploadedBy:     batch.UploadedBy,
			})
		}
	}

	return all, nil
}

// AddObservation attaches a free-text note to a location id. The id is an
// opaque grouping key; nothing checks that it addresses a live location, so
// notes can be attached before a durable location identity exists.
func (s *Service) AddObservation(ctx context.Context, locationID, userID, username, text string) (*models.Observation, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyObservation
	}

	obs := &models.Observation{
		ID:         common.NewID(),
		LocationID: locationID,
		UserID:     userID,
		Username:   username,
		Text:       trimmed,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.observations.SaveObservation(ctx, obs); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("observation_id", obs.ID).
		Str("location_id", locationID).
		Str("username", username).
		Msg("Observation added")

	return obs, nil
}

// ListObservations returns observations for the key, most recent first.
func (s *Service) ListObservations(ctx context.Context, locationID string) ([]*models.Observation, error) {
	return s.observations.ListByLocation(ctx, locationID)
}

// DeleteObservation removes an observation. Only the author or an admin may
// delete it.
func (s *Service) DeleteObservation(ctx context.Context, observationID, requesterID string, requesterIsAdmin bool) error {
	obs, err := s.observations.GetObservation(ctx, observationID)
	if err != nil {
		return err
	}

	if obs.UserID != requesterID && !requesterIsAdmin {
		return ErrObservationForbidden
	}

	return s.observations.DeleteObservation(ctx, observationID)
}
