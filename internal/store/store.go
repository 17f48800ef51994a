// Package store is the entity store: groups, posts, comments and the users
// they reference. Every write runs in a single transaction, and cascades are
// carried out explicitly so they hold even where the database does not
// enforce foreign keys.
package store

import (
	"context"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle to packages that run their own queries
// against the same tables.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}
