package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/xgrabbot/internal/config"
	"github.com/iconidentify/xgrabbot/internal/domain"
	"github.com/iconidentify/xgrabbot/internal/service"
	"github.com/iconidentify/xgrabbot/internal/worker"
)

// Grabber resolves tweet links and delivers their media.
// Implemented by *service.GrabService.
type Grabber interface {
	ExtractTweetIDs(ctx context.Context, origin domain.Origin, text string) ([]domain.TweetID, error)
	Dispatch(ctx context.Context, req service.DispatchRequest) (*service.DispatchResult, error)
	Stats(ctx context.Context) (domain.Stats, error)
	ResetStats(ctx context.Context) error
	RecordRequest(ctx context.Context)
}

// Submitter queues work. Implemented by *worker.Pool.
type Submitter interface {
	Submit(job worker.Job) error
}

// Bot receives Telegram updates and answers them.
type Bot struct {
	api         API
	self        tgbotapi.User
	grabber     Grabber
	pool        Submitter
	transport   *Transport
	developerID int64
	donateURL   string
	pollTimeout int
	logger      *slog.Logger
}

// New creates a bot. self is the bot's own account, used to spot @-mentions.
func New(api API, self tgbotapi.User, grabber Grabber, pool Submitter, cfg config.TelegramConfig, logger *slog.Logger) *Bot {
	return &Bot{
		api:         api,
		self:        self,
		grabber:     grabber,
		pool:        pool,
		transport:   NewTransport(api, cfg, logger),
		developerID: cfg.DeveloperID,
		donateURL:   cfg.DonateURL,
		pollTimeout: cfg.PollTimeout,
		logger:      logger.With("bot", self.UserName),
	}
}

// Run long-polls for updates until ctx is done. Every update is handled as
// one job on the worker pool.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.registerCommands(); err != nil {
		b.logger.Warn("failed to register commands", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("polling for updates", "timeout", b.pollTimeout)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.submit(update)
		}
	}
}

func (b *Bot) submit(update tgbotapi.Update) {
	job := worker.Job{
		Name:    fmt.Sprintf("update-%d", update.UpdateID),
		Payload: update,
		Run: func(ctx context.Context) error {
			return b.HandleUpdate(ctx, update)
		},
	}
	if err := b.pool.Submit(job); err != nil {
		b.logger.Warn("dropping update", "update_id", update.UpdateID, "error", err)
	}
}

// HandleUpdate answers one update. A returned error is unexpected and
// should be reported. Telegram rejecting a reply is logged instead.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	err := b.route(ctx, update)

	var te *domain.TransportError
	if errors.As(err, &te) {
		b.logger.Warn("failed to deliver reply",
			"update_id", update.UpdateID,
			"op", te.Op,
			"error", te.Err,
		)
		return nil
	}
	return err
}

func (b *Bot) route(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.InlineQuery != nil:
		return b.handleInlineQuery(ctx, update.InlineQuery)
	case update.Message != nil && update.Message.IsCommand():
		return b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		return b.handleMention(ctx, update.Message)
	}
	return nil
}

func (b *Bot) registerCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Say hi"},
		tgbotapi.BotCommand{Command: "help", Description: "How to use the bot"},
		tgbotapi.BotCommand{Command: "grab", Description: "Grab the media of a tweet: /grab <url>"},
		tgbotapi.BotCommand{Command: "donate", Description: "Support the bot"},
	)
	_, err := b.api.Request(cfg)
	return err
}

func originOf(msg *tgbotapi.Message) domain.Origin {
	origin := domain.Origin{MessageID: msg.MessageID}
	if msg.From != nil {
		origin.UserID = msg.From.ID
	}
	if msg.Chat != nil {
		origin.ChatID = msg.Chat.ID
	}
	return origin
}
