package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/iconidentify/xgrabbot/internal/config"
	"github.com/iconidentify/xgrabbot/internal/domain"
	"github.com/iconidentify/xgrabbot/internal/service"
)

var _ service.Transport = (*Transport)(nil)

// Transport delivers media and texts to Telegram chats. Every outbound call
// waits on a shared rate limiter so bursts stay under the Bot API flood limits.
type Transport struct {
	api     API
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewTransport creates a rate-limited transport.
func NewTransport(api API, cfg config.TelegramConfig, logger *slog.Logger) *Transport {
	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	burst := cfg.SendBurst
	if burst <= 0 {
		burst = 1
	}

	return &Transport{
		api:     api,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// SendPhotoGroup sends the images as one group of documents, so Telegram
// keeps them uncompressed.
func (t *Transport) SendPhotoGroup(ctx context.Context, origin domain.Origin, urls []string) error {
	files := make([]interface{}, 0, len(urls))
	for _, u := range urls {
		files = append(files, tgbotapi.NewInputMediaDocument(tgbotapi.FileURL(u)))
	}
	return t.request(ctx, "send photo group", tgbotapi.NewMediaGroup(origin.ChatID, files))
}

func (t *Transport) SendAnimation(ctx context.Context, origin domain.Origin, url string) error {
	return t.send(ctx, "send animation", tgbotapi.NewAnimation(origin.ChatID, tgbotapi.FileURL(url)))
}

func (t *Transport) SendVideo(ctx context.Context, origin domain.Origin, url string) error {
	return t.send(ctx, "send video", tgbotapi.NewVideo(origin.ChatID, tgbotapi.FileURL(url)))
}

// SendText replies to the origin message when there is one.
func (t *Transport) SendText(ctx context.Context, origin domain.Origin, text string) error {
	msg := tgbotapi.NewMessage(origin.ChatID, text)
	if origin.MessageID != 0 {
		msg.ReplyToMessageID = origin.MessageID
		msg.AllowSendingWithoutReply = true
	}
	return t.send(ctx, "send text", msg)
}

func (t *Transport) send(ctx context.Context, op string, c tgbotapi.Chattable) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return domain.NewTransportError(op, err)
	}
	if _, err := t.api.Send(c); err != nil {
		t.logger.Debug("telegram send failed", "op", op, "error", err)
		return domain.NewTransportError(op, err)
	}
	return nil
}

// request is send for methods whose result is not a Message.
func (t *Transport) request(ctx context.Context, op string, c tgbotapi.Chattable) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return domain.NewTransportError(op, err)
	}
	if _, err := t.api.Request(c); err != nil {
		t.logger.Debug("telegram request failed", "op", op, "error", err)
		return domain.NewTransportError(op, err)
	}
	return nil
}
