package store

import (
	"context"
	"fmt"

	"github.com/eleven-am/tasks/internal/models"
	"github.com/eleven-am/tasks/internal/orm"
)

// CreateUser inserts a user and returns it with its generated id.
// No uniqueness check is made on either field.
func (s *Store) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	user := &models.User{Name: name, Email: email}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser looks a user up by id; (nil, nil) means no such user
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.Users.FindByID(ctx, id)
	if orm.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// ListUsers returns every user in storage order
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.Query(ctx).Find()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
