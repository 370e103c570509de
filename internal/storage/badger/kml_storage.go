package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// KMLStorage implements the KMLStorage interface for Badger
type KMLStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewKMLStorage creates a new KMLStorage instance
func NewKMLStorage(db *BadgerDB, logger arbor.ILogger) interfaces.KMLStorage {
	return &KMLStorage{
		db:     db,
		logger: logger,
	}
}

func (s *KMLStorage) SaveBatch(ctx context.Context, batch *models.KMLBatch) error {
	if batch.ID == "" {
		return fmt.Errorf("batch ID is required")
	}

	if err := s.db.Store().Upsert(batch.ID, batch); err != nil {
		return fmt.Errorf("failed to save KML batch: %w", err)
	}
	return nil
}

func (s *KMLStorage) GetBatch(ctx context.Context, id string) (*models.KMLBatch, error) {
	var batch models.KMLBatch
	if err := s.db.Store().Get(id, &batch); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("KML batch %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get KML batch: %w", err)
	}
	return &batch, nil
}

// ListActiveBatches returns every active batch ordered by upload time, which
// matches insertion order. Search and listing scan this slice front to back.
func (s *KMLStorage) ListActiveBatches(ctx context.Context) ([]*models.KMLBatch, error) {
	var batches []models.KMLBatch
	query := badgerhold.Where("Status").Eq(models.KMLStatusActive).SortBy("UploadedAt")
	if err := s.db.Store().Find(&batches, query); err != nil {
		return nil, fmt.Errorf("failed to list active KML batches: %w", err)
	}

	result := make([]*models.KMLBatch, len(batches))
	for i := range batches {
		result[i] = &batches[i]
	}
	return result, nil
}

func (s *KMLStorage) DeleteBatch(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.KMLBatch{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("KML batch %s: %w", id, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to delete KML batch: %w", err)
	}
	return nil
}
