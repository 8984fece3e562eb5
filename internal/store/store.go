// Package store is the data-access layer: one function per operation, each
// issuing single-row or single-predicate statements through the orm
// repositories. Point lookups report absence as a nil record with a nil error.
package store

import (
	"fmt"

	"github.com/eleven-am/tasks/internal/models"
	"github.com/eleven-am/tasks/internal/orm"
)

// Store holds the repositories for every table
type Store struct {
	Users *orm.Repository[models.User]
	Tasks *orm.Repository[models.Task]
}

// Option customises a Store at construction
type Option func(*Store)

// WithMiddleware wraps every statement of every repository
func WithMiddleware(middleware ...orm.QueryMiddleware) Option {
	return func(s *Store) {
		for _, m := range middleware {
			s.Users.AddMiddleware(m)
			s.Tasks.AddMiddleware(m)
		}
	}
}

// New builds a Store over db, usually the process-wide *sqlx.DB
func New(db orm.DBExecutor, opts ...Option) (*Store, error) {
	users, err := orm.NewRepository[models.User](db, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user repository: %w", err)
	}

	tasks, err := orm.NewRepository[models.Task](db, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create task repository: %w", err)
	}

	s := &Store{Users: users, Tasks: tasks}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tables returns the metadata of every table, for schema creation
func (s *Store) Tables() []*orm.ModelMetadata {
	return []*orm.ModelMetadata{s.Users.Metadata(), s.Tasks.Metadata()}
}
