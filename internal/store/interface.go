package store

import (
	"context"
	"errors"

	"bodycomp/internal/measurement"
)

var (
	// ErrNotFound 表示记录不存在。
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict 表示创建时 id 已被占用。
	ErrConflict = errors.New("store: record id already exists")
)

// RecordStore is the entry point for measurement persistence.
type RecordStore interface {
	// List returns every record, oldest exam first.
	List(ctx context.Context) ([]measurement.Record, error)
	Get(ctx context.Context, id string) (measurement.Record, error)
	// Create assigns an id and timestamp when missing and returns the stored record.
	Create(ctx context.Context, rec measurement.Record) (measurement.Record, error)
	// Update replaces an existing record; the id in rec is ignored.
	Update(ctx context.Context, id string, rec measurement.Record) (measurement.Record, error)
	Delete(ctx context.Context, id string) error
	// Close closes the store connection.
	Close() error
}
