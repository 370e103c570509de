package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// UserStorage implements the UserStorage interface for Badger
type UserStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewUserStorage creates a new UserStorage instance
func NewUserStorage(db *BadgerDB, logger arbor.ILogger) interfaces.UserStorage {
	return &UserStorage{
		db:     db,
		logger: logger,
	}
}

func (s *UserStorage) SaveUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	if err := s.db.Store().Upsert(user.ID, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *UserStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.Store().Get(id, &user); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("user %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *UserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var users []models.User
	if err := s.db.Store().Find(&users, badgerhold.Where("Username").Eq(username)); err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", username, interfaces.ErrNotFound)
	}
	return &users[0], nil
}

func (s *UserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []models.User
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt")
	if err := s.db.Store().Find(&users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]*models.User, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

func (s *UserStorage) ListUsersByStatus(ctx context.Context, status string) ([]*models.User, error) {
	var users []models.User
	query := badgerhold.Where("Status").Eq(status).SortBy("CreatedAt")
	if err := s.db.Store().Find(&users, query); err != nil {
		return nil, fmt.Errorf("failed to list users by status: %w", err)
	}

	result := make([]*models.User, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

func (s *UserStorage) DeleteUser(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.User{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("user %s: %w", id, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserStorage) CountUsers(ctx context.Context) (int, error) {
	var users []models.User
	if err := s.db.Store().Find(&users, badgerhold.Where("ID").Ne("")); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return len(users), nil
}
