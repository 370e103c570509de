package interfaces

import (
	"context"
	"errors"

	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// ErrNotFound is returned by storage lookups when no record has the given key.
var ErrNotFound = errors.New("record not found")

// UserStorage - interface for user account persistence
type UserStorage interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListUsersByStatus(ctx context.Context, status string) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

// PendenciaStorage - interface for pendencia ticket persistence
type PendenciaStorage interface {
	SavePendencia(ctx context.Context, p *models.Pendencia) error
	GetPendencia(ctx context.Context, id string) (*models.Pendencia, error)
	// ListPendencias returns tickets matching the filter, newest first.
	ListPendencias(ctx context.Context, filter models.PendenciaFilter) ([]*models.Pendencia, error)
	DeletePendencia(ctx context.Context, id string) error
	// DistinctSites returns the sorted set of site names present in the store.
	DistinctSites(ctx context.Context) ([]string, error)
}

// KMLStorage - interface for ingested location batch persistence.
// Insert-one, find-by-status and delete-one over an opaque-id document store.
type KMLStorage interface {
	SaveBatch(ctx context.Context, batch *models.KMLBatch) error
	GetBatch(ctx context.Context, id string) (*models.KMLBatch, error)
	// ListActiveBatches returns active batches in upload order.
	ListActiveBatches(ctx context.Context) ([]*models.KMLBatch, error)
	DeleteBatch(ctx context.Context, id string) error
}

// ObservationStorage - interface for location annotation persistence
type ObservationStorage interface {
	SaveObservation(ctx context.Context, obs *models.Observation) error
	GetObservation(ctx context.Context, id string) (*models.Observation, error)
	// ListByLocation returns observations for the key, most recent first.
	ListByLocation(ctx context.Context, locationID string) ([]*models.Observation, error)
	DeleteObservation(ctx context.Context, id string) error
}

// FormConfigStorage - interface for the pendencia form dropdown configuration
type FormConfigStorage interface {
	GetFormConfig(ctx context.Context) (*models.FormConfig, error)
	SaveFormConfig(ctx context.Context, cfg *models.FormConfig) error
}

// StorageManager aggregates the per-collection storages over one database
type StorageManager interface {
	UserStorage() UserStorage
	PendenciaStorage() PendenciaStorage
	KMLStorage() KMLStorage
	ObservationStorage() ObservationStorage
	FormConfigStorage() FormConfigStorage
	Close() error
}
