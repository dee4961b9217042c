package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

// RedisCounterRepository stores counters as fields of one Redis hash.
type RedisCounterRepository struct {
	client *redis.Client
	key    string
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisCounterRepository connects to Redis and seeds missing counter fields with zero.
func NewRedisCounterRepository(ctx context.Context, opts RedisOptions) (*RedisCounterRepository, error) {
	if opts.Key == "" {
		opts.Key = "xgrabbot:stats"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	r := &RedisCounterRepository{client: client, key: opts.Key}

	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, name := range domain.CounterNames {
			pipe.HSetNX(ctx, r.key, string(name), 0)
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("seed counters: %w", err)
	}

	return r, nil
}

// Increment adds one to the named counter.
func (r *RedisCounterRepository) Increment(ctx context.Context, name domain.CounterName) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCounter, name)
	}
	if err := r.client.HIncrBy(ctx, r.key, string(name), 1).Err(); err != nil {
		return fmt.Errorf("increment %s: %w", name, err)
	}
	return nil
}

// Snapshot reads the whole hash.
func (r *RedisCounterRepository) Snapshot(ctx context.Context) (domain.Stats, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("read counters: %w", err)
	}

	stats := domain.Stats{ReadAt: time.Now()}
	for name, raw := range fields {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Stats{}, fmt.Errorf("parse counter %s: %w", name, err)
		}
		stats.Set(domain.CounterName(name), value)
	}
	return stats, nil
}

// Reset sets every counter to zero.
func (r *RedisCounterRepository) Reset(ctx context.Context) error {
	values := make(map[string]any, len(domain.CounterNames))
	for _, name := range domain.CounterNames {
		values[string(name)] = 0
	}
	if err := r.client.HSet(ctx, r.key, values).Err(); err != nil {
		return fmt.Errorf("reset counters: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisCounterRepository) Close() error {
	return r.client.Close()
}
