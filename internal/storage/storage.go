// Package storage provides storage backends for quote history.
package storage

import (
	"github.com/pkg/errors"

	"github.com/johan/sads-console/internal/config"
	"github.com/johan/sads-console/internal/quotes"
)

// Storage defines the interface for storing accepted quotes.
type Storage interface {
	// Write appends a quote to storage.
	Write(q *quotes.Quote) error

	// Close closes the storage backend.
	Close() error
}

// NullStorage is a no-op storage that discards all data.
type NullStorage struct{}

// NewNullStorage creates a new null storage.
func NewNullStorage() *NullStorage {
	return &NullStorage{}
}

// Write does nothing.
func (s *NullStorage) Write(q *quotes.Quote) error {
	return nil
}

// Close does nothing.
func (s *NullStorage) Close() error {
	return nil
}

// New opens the backend selected by cfg.Type.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "none":
		return NewNullStorage(), nil
	case "file":
		return NewFileStorage(cfg.OutputDir, cfg.MaxSizeMB, cfg.MaxBackups)
	case "sqlite":
		return OpenSQLite(cfg.DSN)
	case "postgres":
		return OpenPostgres(cfg.DSN)
	default:
		return nil, errors.Errorf("invalid storage type: %s", cfg.Type)
	}
}
