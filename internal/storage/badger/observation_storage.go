package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// ObservationStorage implements the ObservationStorage interface for Badger
type ObservationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewObservationStorage creates a new ObservationStorage instance
func NewObservationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ObservationStorage {
	return &ObservationStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ObservationStorage) SaveObservation(ctx context.Context, obs *models.Observation) error {
	if obs.ID == "" {
		return fmt.Errorf("observation ID is required")
	}

	if err := s.db.Store().Upsert(obs.ID, obs); err != nil {
		return fmt.Errorf("failed to save observation: %w", err)
	}
	return nil
}

func (s *ObservationStorage) GetObservation(ctx context.Context, id string) (*models.Observation, error) {
	var obs models.Observation
	if err := s.db.Store().Get(id, &obs); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("observation %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}
	return &obs, nil
}

func (s *ObservationStorage) ListByLocation(ctx context.Context, locationID string) ([]*models.Observation, error) {
	var observations []models.Observation
	query := badgerhold.Where("LocationID").Eq(locationID).SortBy("CreatedAt").Reverse()
	if err := s.db.Store().Find(&observations, query); err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}

	result := make([]*models.Observation, len(observations))
	for i := range observations {
		result[i] = &observations[i]
	}
	return result, nil
}

func (s *ObservationStorage) DeleteObservation(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Observation{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("observation %s: %w", id, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to delete observation: %w", err)
	}
	return nil
}
