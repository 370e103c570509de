package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/common"
	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	user        interfaces.UserStorage
	pendencia   interfaces.PendenciaStorage
	kml         interfaces.KMLStorage
	observation interfaces.ObservationStorage
	formConfig  interfaces.FormConfigStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:          db,
		user:        NewUserStorage(db, logger),
		pendencia:   NewPendenciaStorage(db, logger),
		kml:         NewKMLStorage(db, logger),
		observation: NewObservationStorage(db, logger),
		formConfig:  NewFormConfigStorage(db, logger),
		logger:      logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// UserStorage returns the User storage interface
func (m *Manager) UserStorage() interfaces.UserStorage {
	return m.user
}

// PendenciaStorage returns the Pendencia storage interface
func (m *Manager) PendenciaStorage() interfaces.PendenciaStorage {
	return m.pendencia
}

// KMLStorage returns the KML batch storage interface
func (m *Manager) KMLStorage() interfaces.KMLStorage {
	return m.kml
}

// ObservationStorage returns the Observation storage interface
func (m *Manager) ObservationStorage() interfaces.ObservationStorage {
	return m.observation
}

// FormConfigStorage returns the FormConfig storage interface
func (m *Manager) FormConfigStorage() interfaces.FormConfigStorage {
	return m.formConfig
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
