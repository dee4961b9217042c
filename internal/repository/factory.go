package repository

import (
	"context"
	"fmt"

	"github.com/iconidentify/xgrabbot/internal/config"
)

// NewCounterRepository opens the counters store selected by cfg.Backend.
func NewCounterRepository(ctx context.Context, cfg config.StatsConfig) (CounterRepository, error) {
	switch cfg.Backend {
	case config.StatsBackendMemory:
		return NewInMemoryCounterRepository(), nil
	case config.StatsBackendSQLite, "":
		return NewSQLiteCounterRepository(ctx, cfg.SQLitePath)
	case config.StatsBackendRedis:
		return NewRedisCounterRepository(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
	default:
		return nil, fmt.Errorf("unknown stats backend %q", cfg.Backend)
	}
}
