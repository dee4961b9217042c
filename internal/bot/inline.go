package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/iconidentify/xgrabbot/internal/domain"
	"github.com/iconidentify/xgrabbot/internal/service"
	"github.com/iconidentify/xgrabbot/pkg/twitter"
)

const inlineCacheTime = 1 // seconds; zero is dropped by the library

func (b *Bot) handleInlineQuery(ctx context.Context, q *tgbotapi.InlineQuery) error {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return nil
	}

	origin := domain.Origin{}
	if q.From != nil {
		origin.UserID = q.From.ID
	}
	logger := b.logger.With("user_id", origin.UserID, "inline_query_id", q.ID)

	if !twitter.IsTweetURL(query) {
		b.grabber.RecordRequest(ctx)
		return b.answerInline(ctx, q.ID, []domain.InlineResult{placeholder()})
	}

	ids, err := b.grabber.ExtractTweetIDs(ctx, origin, query)
	if errors.Is(err, domain.ErrNoTweetIDs) {
		b.grabber.RecordRequest(ctx)
		return b.answerInline(ctx, q.ID, []domain.InlineResult{placeholder()})
	}
	if err != nil {
		b.answerPlaceholder(ctx, q.ID)
		return fmt.Errorf("extract tweet ids: %w", err)
	}

	result, err := b.grabber.Dispatch(ctx, service.DispatchRequest{
		Origin:   origin,
		TweetIDs: ids,
		Mode:     domain.ModeInlineQuery,
	})
	if err != nil {
		b.answerPlaceholder(ctx, q.ID)
		return fmt.Errorf("dispatch: %w", err)
	}

	logger.Info("answering inline query", "results", len(result.Results))
	return b.answerInline(ctx, q.ID, result.Results)
}

func (b *Bot) answerPlaceholder(ctx context.Context, queryID string) {
	if err := b.answerInline(context.WithoutCancel(ctx), queryID, []domain.InlineResult{placeholder()}); err != nil {
		b.logger.Warn("failed to answer inline query", "error", err)
	}
}

func (b *Bot) answerInline(ctx context.Context, queryID string, results []domain.InlineResult) error {
	answer := tgbotapi.InlineConfig{
		InlineQueryID: queryID,
		Results:       telegramResults(results),
		CacheTime:     inlineCacheTime,
		IsPersonal:    true,
	}
	return b.transport.request(ctx, "answer inline query", answer)
}

func placeholder() domain.InlineResult {
	return domain.InlineResult{
		Kind:  domain.InlineResultArticle,
		ID:    uuid.NewString(),
		Title: service.MsgNothingFound,
		Text:  service.MsgNothingFound,
	}
}

func telegramResults(results []domain.InlineResult) []interface{} {
	out := make([]interface{}, 0, len(results))
	for _, r := range results {
		switch r.Kind {
		case domain.InlineResultPhoto:
			out = append(out, tgbotapi.NewInlineQueryResultPhotoWithThumb(r.ID, r.URL, r.ThumbnailURL))
		case domain.InlineResultGIF:
			gif := tgbotapi.NewInlineQueryResultGIF(r.ID, r.URL)
			gif.ThumbURL = r.ThumbnailURL
			out = append(out, gif)
		case domain.InlineResultVideo:
			video := tgbotapi.NewInlineQueryResultVideo(r.ID, r.URL)
			video.MimeType = "video/mp4"
			video.ThumbURL = r.ThumbnailURL
			video.Title = r.Title
			out = append(out, video)
		default:
			out = append(out, tgbotapi.NewInlineQueryResultArticle(r.ID, r.Title, r.Text))
		}
	}
	return out
}
