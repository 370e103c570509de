package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// FormConfigStorage implements the FormConfigStorage interface for Badger.
// One document keyed "main" holds the pendencia form dropdown options.
type FormConfigStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFormConfigStorage creates a new FormConfigStorage instance
func NewFormConfigStorage(db *BadgerDB, logger arbor.ILogger) interfaces.FormConfigStorage {
	return &FormConfigStorage{
		db:     db,
		logger: logger,
	}
}

func (s *FormConfigStorage) GetFormConfig(ctx context.Context) (*models.FormConfig, error) {
	var cfg models.FormConfig
	if err := s.db.Store().Get("main", &cfg); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("form config: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get form config: %w", err)
	}
	return &cfg, nil
}

func (s *FormConfigStorage) SaveFormConfig(ctx context.Context, cfg *models.FormConfig) error {
	if cfg.Type == "" {
		cfg.Type = "main"
	}

	if err := s.db.Store().Upsert(cfg.Type, cfg); err != nil {
		return fmt.Errorf("failed to save form config: %w", err)
	}
	return nil
}
