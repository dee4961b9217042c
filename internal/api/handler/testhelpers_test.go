package handler

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/iconidentify/xgrabbot/internal/domain"
	"github.com/iconidentify/xgrabbot/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStatsService is a test implementation of StatsService.
type mockStatsService struct {
	stats    domain.Stats
	statsErr error
	resetErr error
	resets   int
}

func newMockStatsService() *mockStatsService {
	return &mockStatsService{
		stats: domain.Stats{ReadAt: time.Now()},
	}
}

func (m *mockStatsService) Stats(ctx context.Context) (domain.Stats, error) {
	if m.statsErr != nil {
		return domain.Stats{}, m.statsErr
	}
	return m.stats, nil
}

func (m *mockStatsService) ResetStats(ctx context.Context) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.resets++
	m.stats = domain.Stats{ReadAt: time.Now()}
	return nil
}

// mockResolver is a test implementation of Resolver.
type mockResolver struct {
	ids        []domain.TweetID
	extractErr error
	result     *service.DispatchResult
	dispatch   error
	requests   []service.DispatchRequest
}

func (m *mockResolver) ExtractTweetIDs(ctx context.Context, origin domain.Origin, text string) ([]domain.TweetID, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.ids, nil
}

func (m *mockResolver) Dispatch(ctx context.Context, req service.DispatchRequest) (*service.DispatchResult, error) {
	m.requests = append(m.requests, req)
	if m.dispatch != nil {
		return nil, m.dispatch
	}
	return m.result, nil
}
