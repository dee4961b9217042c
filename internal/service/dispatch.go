package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

// Maximum number of documents in one grouped send.
const maxGroupSize = 10

// Texts shown to users.
const (
	MsgNothingFound    = "There's nothing I can get for you there!"
	MsgVideoTooBig     = "Video too big!"
	msgVideoTooBigText = "Video too big"
	msgVideoTooLarge   = "Video is too large for Telegram upload (%s). Link:\n%s"
	msgVideoFailed     = "Error occurred when trying to send video. Direct link:\n%s"
	msgGIFFailed       = "Error occurred when trying to send GIF. Direct link:\n%s"
	msgPhotosFailed    = "Error occurred when trying to send photos. Direct links:\n%s"
	msgFetchFailed     = "Sorry, I couldn't get the media of tweet %s. Please try again later."
	msgNoMedia         = "Tweet %s has no media I can send."
)

var (
	// ErrNoTransport is returned when a command-reply dispatch has nowhere to send.
	ErrNoTransport = errors.New("command-reply dispatch needs a transport")

	// ErrUnknownDispatchMode is returned for modes other than command-reply and inline-query.
	ErrUnknownDispatchMode = errors.New("unknown dispatch mode")
)

// Transport delivers resolved media to the chat a request came from.
// Every method may be called concurrently for different origins.
type Transport interface {
	// SendPhotoGroup sends up to ten images as one grouped document message.
	SendPhotoGroup(ctx context.Context, origin domain.Origin, urls []string) error
	SendAnimation(ctx context.Context, origin domain.Origin, url string) error
	SendVideo(ctx context.Context, origin domain.Origin, url string) error
	SendText(ctx context.Context, origin domain.Origin, text string) error
}

// DispatchRequest is one top-level delivery request.
type DispatchRequest struct {
	Origin   domain.Origin
	TweetIDs []domain.TweetID
	Mode     domain.DispatchMode

	// Transport is required in command-reply mode and ignored in inline mode.
	Transport Transport
}

// DispatchResult reports what was decided for every asset.
type DispatchResult struct {
	Mode      domain.DispatchMode   `json:"mode"`
	Decisions []domain.Decision     `json:"decisions"`
	Results   []domain.InlineResult `json:"results,omitempty"`
}

// Dispatch resolves the media of every tweet in req and delivers it according
// to req.Mode. Per-tweet and per-asset failures are handled inside and never
// returned; an error means the request itself was malformed.
func (s *GrabService) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	switch req.Mode {
	case domain.ModeCommandReply:
		if req.Transport == nil {
			return nil, ErrNoTransport
		}
	case domain.ModeInlineQuery:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDispatchMode, req.Mode)
	}

	logger := s.logger.With(
		"user_id", req.Origin.UserID,
		"mode", req.Mode,
	)
	logger.Info("dispatching tweets", "tweet_ids", req.TweetIDs)

	result := &DispatchResult{Mode: req.Mode}
	if req.Mode == domain.ModeCommandReply {
		result.Decisions = s.dispatchReply(ctx, logger, req.Origin, req.TweetIDs, req.Transport)
	} else {
		result.Decisions, result.Results = s.dispatchInline(ctx, logger, req.TweetIDs)
	}

	s.increment(ctx, domain.CounterIdentifiersResolved)
	s.increment(ctx, domain.CounterRequestsServed)

	return result, nil
}

// DispatchInline builds inline answers from the first tweet that has media.
func (s *GrabService) DispatchInline(ctx context.Context, origin domain.Origin, ids []domain.TweetID) (*DispatchResult, error) {
	return s.Dispatch(ctx, DispatchRequest{
		Origin:   origin,
		TweetIDs: ids,
		Mode:     domain.ModeInlineQuery,
	})
}

// =============================================================================
// Command-reply mode
// =============================================================================

func (s *GrabService) dispatchReply(ctx context.Context, logger *slog.Logger, origin domain.Origin, ids []domain.TweetID, t Transport) []domain.Decision {
	var decisions []domain.Decision

	for _, id := range ids {
		tl := logger.With("tweet_id", id)

		media, err := s.client.FetchMedia(ctx, id)
		if err != nil {
			tl.Warn("failed to fetch tweet media", "error", err, "upstream", domain.IsUpstream(err))
			s.sendText(ctx, tl, t, origin, fmt.Sprintf(msgFetchFailed, id))
			continue
		}

		buckets := domain.Classify(media)
		if buckets.IsEmpty() {
			tl.Info("tweet has no media")
			decisions = append(decisions, domain.NotFound(id))
			s.sendText(ctx, tl, t, origin, fmt.Sprintf(msgNoMedia, id))
			continue
		}

		tweetDecisions := s.replyPhotos(ctx, tl, origin, buckets.Photos, t)
		tweetDecisions = append(tweetDecisions, s.replyAnimations(ctx, tl, origin, buckets.Animations, t)...)
		tweetDecisions = append(tweetDecisions, s.replyVideos(ctx, tl, origin, buckets.Videos, t)...)

		for i := range tweetDecisions {
			tweetDecisions[i].TweetID = id
		}
		decisions = append(decisions, tweetDecisions...)
	}

	return decisions
}

func (s *GrabService) replyPhotos(ctx context.Context, logger *slog.Logger, origin domain.Origin, photos []domain.Photo, t Transport) []domain.Decision {
	if len(photos) == 0 {
		return nil
	}

	decisions := s.upgradePhotos(ctx, photos)
	for range decisions {
		s.countDelivered(ctx)
	}

	for start := 0; start < len(decisions); start += maxGroupSize {
		end := min(start+maxGroupSize, len(decisions))
		chunk := decisions[start:end]

		urls := make([]string, len(chunk))
		for i, d := range chunk {
			urls[i] = d.URL
		}

		if err := t.SendPhotoGroup(ctx, origin, urls); err != nil {
			logger.Warn("failed to send photo group, sending direct links",
				"error", domain.NewTransportError("send photo group", err),
				"count", len(urls),
			)
			for i := range chunk {
				chunk[i] = transportFallback(chunk[i])
			}
			s.sendText(ctx, logger, t, origin, fmt.Sprintf(msgPhotosFailed, strings.Join(urls, "\n")))
		}
	}

	return decisions
}

func (s *GrabService) replyAnimations(ctx context.Context, logger *slog.Logger, origin domain.Origin, gifs []domain.Animation, t Transport) []domain.Decision {
	decisions := make([]domain.Decision, 0, len(gifs))

	for _, gif := range gifs {
		logger.Info("sending gif", "url", gif.URL)
		d := domain.AsIs(gif)
		s.countDelivered(ctx)

		if err := t.SendAnimation(ctx, origin, gif.URL); err != nil {
			logger.Warn("failed to send gif, sending direct link",
				"error", domain.NewTransportError("send animation", err),
			)
			d = transportFallback(d)
			s.sendText(ctx, logger, t, origin, fmt.Sprintf(msgGIFFailed, gif.URL))
		}
		decisions = append(decisions, d)
	}

	return decisions
}

func (s *GrabService) replyVideos(ctx context.Context, logger *slog.Logger, origin domain.Origin, videos []domain.Video, t Transport) []domain.Decision {
	decisions := make([]domain.Decision, 0, len(videos))

	for _, video := range videos {
		d := s.ResolveVideo(ctx, video)
		s.countDelivered(ctx)

		switch {
		case d.Deliverable():
			if err := t.SendVideo(ctx, origin, d.URL); err != nil {
				logger.Warn("failed to send video, sending direct link",
					"error", domain.NewTransportError("send video", err),
				)
				d = transportFallback(d)
				s.sendText(ctx, logger, t, origin, fmt.Sprintf(msgVideoFailed, d.URL))
			}
		case d.Reason == domain.ReasonTooLarge:
			s.sendText(ctx, logger, t, origin, fmt.Sprintf(msgVideoTooLarge, humanize.IBytes(uint64(d.Size)), d.URL))
		default:
			s.sendText(ctx, logger, t, origin, fmt.Sprintf(msgVideoFailed, d.URL))
		}
		decisions = append(decisions, d)
	}

	return decisions
}

// transportFallback turns a rejected in-line send into a direct link to the
// URL that was attempted.
func transportFallback(d domain.Decision) domain.Decision {
	fallback := domain.DirectLink(d.Media, domain.ReasonTransportError)
	fallback.URL = d.URL
	fallback.TweetID = d.TweetID
	fallback.Size = d.Size
	return fallback
}

// sendText is the last resort of every fallback; its failure is only logged.
func (s *GrabService) sendText(ctx context.Context, logger *slog.Logger, t Transport, origin domain.Origin, text string) {
	if err := t.SendText(ctx, origin, text); err != nil {
		logger.Error("failed to send text reply", "error", domain.NewTransportError("send text", err))
	}
}

// countDelivered counts one resolved asset unless the request was cancelled
// while resolving it.
func (s *GrabService) countDelivered(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.increment(ctx, domain.CounterMediaDelivered)
}

// =============================================================================
// Inline-query mode
// =============================================================================

func (s *GrabService) dispatchInline(ctx context.Context, logger *slog.Logger, ids []domain.TweetID) ([]domain.Decision, []domain.InlineResult) {
	var notFound []domain.Decision

	for _, id := range ids {
		tl := logger.With("tweet_id", id)

		media, err := s.client.FetchMedia(ctx, id)
		if err != nil {
			tl.Error("error occurred when fetching tweet", "error", err)
			continue
		}

		decisions, results := s.inlineBucket(ctx, tl, domain.Classify(media))
		if len(results) == 0 {
			tl.Info("tweet has no media")
			notFound = append(notFound, domain.NotFound(id))
			continue
		}

		for i := range decisions {
			decisions[i].TweetID = id
		}
		return decisions, results
	}

	return notFound, []domain.InlineResult{{
		Kind:  domain.InlineResultArticle,
		ID:    uuid.NewString(),
		Title: MsgNothingFound,
		Text:  MsgNothingFound,
	}}
}

// inlineBucket answers with the first non-empty bucket: photos, else GIFs, else videos.
func (s *GrabService) inlineBucket(ctx context.Context, logger *slog.Logger, b domain.MediaBuckets) ([]domain.Decision, []domain.InlineResult) {
	var decisions []domain.Decision
	var results []domain.InlineResult

	switch {
	case len(b.Photos) > 0:
		decisions = s.upgradePhotos(ctx, b.Photos)
		for _, d := range decisions {
			results = append(results, domain.InlineResult{
				Kind:         domain.InlineResultPhoto,
				ID:           uuid.NewString(),
				URL:          d.URL,
				ThumbnailURL: d.URL,
			})
		}

	case len(b.Animations) > 0:
		for _, gif := range b.Animations {
			logger.Info("gif url", "url", gif.URL)
			decisions = append(decisions, domain.AsIs(gif))
			results = append(results, domain.InlineResult{
				Kind:         domain.InlineResultGIF,
				ID:           uuid.NewString(),
				URL:          gif.URL,
				ThumbnailURL: gif.ThumbnailURL,
			})
		}

	case len(b.Videos) > 0:
		for _, video := range b.Videos {
			d := s.ResolveVideo(ctx, video)
			decisions = append(decisions, d)
			results = append(results, inlineVideoResult(d, video))
		}
	}

	for range decisions {
		s.countDelivered(ctx)
	}
	return decisions, results
}

func inlineVideoResult(d domain.Decision, video domain.Video) domain.InlineResult {
	switch {
	case d.Deliverable():
		return domain.InlineResult{
			Kind:         domain.InlineResultVideo,
			ID:           uuid.NewString(),
			URL:          d.URL,
			ThumbnailURL: video.ThumbnailURL,
			Title:        "Video",
		}
	case d.Reason == domain.ReasonTooLarge:
		return domain.InlineResult{
			Kind:  domain.InlineResultArticle,
			ID:    uuid.NewString(),
			Title: MsgVideoTooBig,
			Text:  msgVideoTooBigText,
		}
	default:
		return domain.InlineResult{
			Kind:  domain.InlineResultArticle,
			ID:    uuid.NewString(),
			Title: "Video unavailable",
			Text:  fmt.Sprintf(msgVideoFailed, d.URL),
		}
	}
}
