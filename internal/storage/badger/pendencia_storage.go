package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// PendenciaStorage implements the PendenciaStorage interface for Badger
type PendenciaStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPendenciaStorage creates a new PendenciaStorage instance
func NewPendenciaStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PendenciaStorage {
	return &PendenciaStorage{
		db:     db,
		logger: logger,
	}
}

func (s *PendenciaStorage) SavePendencia(ctx context.Context, p *models.Pendencia) error {
	if p.ID == "" {
		return fmt.Errorf("pendencia ID is required")
	}

	if err := s.db.Store().Upsert(p.ID, p); err != nil {
		return fmt.Errorf("failed to save pendencia: %w", err)
	}
	return nil
}

func (s *PendenciaStorage) GetPendencia(ctx context.Context, id string) (*models.Pendencia, error) {
	var p models.Pendencia
	if err := s.db.Store().Get(id, &p); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("pendencia %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get pendencia: %w", err)
	}
	return &p, nil
}

func (s *PendenciaStorage) ListPendencias(ctx context.Context, filter models.PendenciaFilter) ([]*models.Pendencia, error) {
	query := badgerhold.Where("ID").Ne("")
	if filter.Site != "" {
		query = query.And("Site").Eq(filter.Site)
	}
	if filter.Tipo != "" {
		query = query.And("Tipo").Eq(filter.Tipo)
	}
	if filter.Status != "" {
		query = query.And("Status").Eq(filter.Status)
	}

	var pendencias []models.Pendencia
	if err := s.db.Store().Find(&pendencias, query.SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list pendencias: %w", err)
	}

	result := make([]*models.Pendencia, len(pendencias))
	for i := range pendencias {
		result[i] = &pendencias[i]
	}
	return result, nil
}

func (s *PendenciaStorage) DeletePendencia(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Pendencia{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("pendencia %s: %w", id, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to delete pendencia: %w", err)
	}
	return nil
}

func (s *PendenciaStorage) DistinctSites(ctx context.Context) ([]string, error) {
	var pendencias []models.Pendencia
	if err := s.db.Store().Find(&pendencias, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to scan pendencias for sites: %w", err)
	}

	seen := make(map[string]struct{}, len(pendencias))
	sites := make([]string, 0)
	for i := range pendencias {
		site := pendencias[i].Site
		if _, ok := seen[site]; ok {
			continue
		}
		seen[site] = struct{}{}
		sites = append(sites, site)
	}
	sort.Strings(sites)

	return sites, nil
}
