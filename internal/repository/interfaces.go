package repository

import (
	"context"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

// CounterRepository persists the usage counters.
type CounterRepository interface {
	// Increment adds one to the named counter.
	Increment(ctx context.Context, name domain.CounterName) error

	// Snapshot reads all counters at once.
	Snapshot(ctx context.Context) (domain.Stats, error)

	// Reset sets every counter back to zero.
	Reset(ctx context.Context) error

	// Close releases the underlying store.
	Close() error
}
