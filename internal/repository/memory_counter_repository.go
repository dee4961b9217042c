package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

// InMemoryCounterRepository implements CounterRepository with atomic counters.
// Values are lost on restart.
type InMemoryCounterRepository struct {
	identifiersResolved atomic.Int64
	mediaDelivered      atomic.Int64
	requestsServed      atomic.Int64
}

// NewInMemoryCounterRepository creates counters starting at zero.
func NewInMemoryCounterRepository() *InMemoryCounterRepository {
	return &InMemoryCounterRepository{}
}

func (r *InMemoryCounterRepository) counter(name domain.CounterName) (*atomic.Int64, error) {
	switch name {
	case domain.CounterIdentifiersResolved:
		return &r.identifiersResolved, nil
	case domain.CounterMediaDelivered:
		return &r.mediaDelivered, nil
	case domain.CounterRequestsServed:
		return &r.requestsServed, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCounter, name)
}

// Increment adds one to the named counter.
func (r *InMemoryCounterRepository) Increment(ctx context.Context, name domain.CounterName) error {
	c, err := r.counter(name)
	if err != nil {
		return err
	}
	c.Add(1)
	return nil
}

// Snapshot reads all counters.
func (r *InMemoryCounterRepository) Snapshot(ctx context.Context) (domain.Stats, error) {
	return domain.Stats{
		IdentifiersResolved: r.identifiersResolved.Load(),
		MediaDelivered:      r.mediaDelivered.Load(),
		RequestsServed:      r.requestsServed.Load(),
		ReadAt:              time.Now(),
	}, nil
}

// Reset sets every counter to zero.
func (r *InMemoryCounterRepository) Reset(ctx context.Context) error {
	r.identifiersResolved.Store(0)
	r.mediaDelivered.Store(0)
	r.requestsServed.Store(0)
	return nil
}

// Close is a no-op.
func (r *InMemoryCounterRepository) Close() error {
	return nil
}
