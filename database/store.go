// database/store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"log"
)

// Store is the MySQL-backed store for stations, vehicles, departures and run logs.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// NewStore wraps an open connection pool.
func NewStore(db *sql.DB, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{db: db, logger: logger}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("database connection is not initialized")
	}
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.logger.Println("Database: connection closed")
	return err
}
