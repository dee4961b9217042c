package service

import (
	"context"
	"log/slog"

	"github.com/iconidentify/xgrabbot/internal/config"
	"github.com/iconidentify/xgrabbot/internal/domain"
	"github.com/iconidentify/xgrabbot/internal/downloader"
	"github.com/iconidentify/xgrabbot/internal/repository"
	"github.com/iconidentify/xgrabbot/pkg/twitter"
)

// MetadataClient fetches tweet media and expands short links.
// Implemented by *twitter.Client.
type MetadataClient interface {
	FetchMedia(ctx context.Context, tweetID domain.TweetID) ([]domain.Media, error)
	Unshorten(ctx context.Context, link string) (string, error)
}

// GrabService resolves tweet links in chat text and delivers their media.
// It holds no per-request state and is safe for concurrent use.
type GrabService struct {
	client       MetadataClient
	prober       downloader.Prober
	counters     repository.CounterRepository
	maxVideoSize int64
	logger       *slog.Logger
}

// NewGrabService creates a new grab service.
func NewGrabService(
	client MetadataClient,
	prober downloader.Prober,
	counters repository.CounterRepository,
	cfg config.ResolverConfig,
	logger *slog.Logger,
) *GrabService {
	maxVideoSize := cfg.MaxVideoSize
	if maxVideoSize <= 0 {
		maxVideoSize = config.DefaultMaxVideoSize
	}

	return &GrabService{
		client:       client,
		prober:       prober,
		counters:     counters,
		maxVideoSize: maxVideoSize,
		logger:       logger,
	}
}

// Normalize returns text followed by the expanded form of every t.co link it
// contains, one per line. Links that fail to expand are skipped.
func (s *GrabService) Normalize(ctx context.Context, origin domain.Origin, text string) string {
	logger := s.logger.With("user_id", origin.UserID)

	expanded := text
	for _, link := range twitter.ShortLinks(text) {
		short := "https://" + link
		final, err := s.client.Unshorten(ctx, short)
		if err != nil {
			logger.Info("could not unshorten link", "link", short, "error", err)
			continue
		}
		logger.Info("unshortened t.co link", "link", short, "url", final)
		expanded += "\n" + final
	}
	return expanded
}

// ExtractTweetIDs expands short links in text and returns the unique tweet IDs
// in first-seen order. It returns domain.ErrNoTweetIDs when there are none.
func (s *GrabService) ExtractTweetIDs(ctx context.Context, origin domain.Origin, text string) ([]domain.TweetID, error) {
	ids := twitter.ExtractTweetIDs(s.Normalize(ctx, origin, text))
	if ids == nil {
		return nil, domain.ErrNoTweetIDs
	}
	return ids, nil
}

// Stats returns a snapshot of the usage counters.
func (s *GrabService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.counters.Snapshot(ctx)
}

// ResetStats sets every usage counter back to zero.
func (s *GrabService) ResetStats(ctx context.Context) error {
	if err := s.counters.Reset(ctx); err != nil {
		return err
	}
	s.logger.Info("bot stats have been reset")
	return nil
}

// RecordRequest counts a handled request that did not go through Dispatch.
func (s *GrabService) RecordRequest(ctx context.Context) {
	s.increment(ctx, domain.CounterRequestsServed)
}

// increment never fails the caller. Counter writes outlive the request deadline.
func (s *GrabService) increment(ctx context.Context, name domain.CounterName) {
	if err := s.counters.Increment(context.WithoutCancel(ctx), name); err != nil {
		s.logger.Warn("failed to increment counter", "counter", name, "error", err)
	}
}
