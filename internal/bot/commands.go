package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/xgrabbot/internal/domain"
	"github.com/iconidentify/xgrabbot/internal/service"
	"github.com/iconidentify/xgrabbot/pkg/twitter"
)

// Replies.
const (
	MsgInvalidURL      = "That's not a valid twitter URL or I couldn't find any media on it"
	MsgNothingResolved = "I couldn't find any tweet links in your message."
	MsgStatsReset      = "Bot stats have been reset"
	MsgGenericFailure  = "Something went wrong while handling your request. Please try again later."

	msgHelp = "Send me a tweet link, @ me with one in a group, or use:\n" +
		"/grab <url> - send the media of a tweet\n" +
		"/donate - support the bot\n\n" +
		"You can also type @%s <tweet url> in any chat."
	msgDonate = "If you like the bot and want to support me, please buy me a coffee! %s"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.addressedToMe(msg) {
		return nil
	}

	logger := b.logger.With("user_id", originOf(msg).UserID, "command", msg.Command())
	logger.Info("received command")

	switch msg.Command() {
	case "start":
		b.grabber.RecordRequest(ctx)
		return b.cmdStart(ctx, msg)
	case "help":
		b.grabber.RecordRequest(ctx)
		return b.replyText(ctx, msg, fmt.Sprintf(msgHelp, b.self.UserName))
	case "grab":
		return b.cmdGrab(ctx, msg)
	case "donate":
		b.grabber.RecordRequest(ctx)
		return b.replyText(ctx, msg, fmt.Sprintf(msgDonate, b.donateURL))
	case "stats":
		if !b.fromDeveloper(msg) {
			return nil
		}
		return b.cmdStats(ctx, msg)
	case "resetstats":
		if !b.fromDeveloper(msg) {
			return nil
		}
		return b.cmdResetStats(ctx, msg)
	}

	logger.Debug("ignoring unknown command")
	return nil
}

// addressedToMe reports whether a command has no @botname suffix or names
// this bot.
func (b *Bot) addressedToMe(msg *tgbotapi.Message) bool {
	_, target, ok := strings.Cut(msg.CommandWithAt(), "@")
	return !ok || strings.EqualFold(target, b.self.UserName)
}

func (b *Bot) fromDeveloper(msg *tgbotapi.Message) bool {
	return b.developerID != 0 && msg.Chat != nil && msg.Chat.ID == b.developerID
}

func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := "there"
	var id int64
	if msg.From != nil {
		name = msg.From.FirstName
		id = msg.From.ID
	}
	mention := fmt.Sprintf("[%s](tg://user?id=%d)", tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, name), id)

	return b.replyMarkdown(ctx, msg, fmt.Sprintf(
		"Hi %s\\!\nJust @ me with a twitter link and I'll try and send you the media", mention))
}

func (b *Bot) cmdGrab(ctx context.Context, msg *tgbotapi.Message) error {
	origin := originOf(msg)

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 || !twitter.IsTweetURL(args[0]) {
		b.grabber.RecordRequest(ctx)
		return b.replyText(ctx, msg, MsgInvalidURL)
	}
	url := args[0]

	ids, err := b.grabber.ExtractTweetIDs(ctx, origin, url)
	if errors.Is(err, domain.ErrNoTweetIDs) {
		b.grabber.RecordRequest(ctx)
		return b.replyText(ctx, msg, MsgInvalidURL)
	}
	if err != nil {
		return b.failed(ctx, msg, fmt.Errorf("extract tweet ids: %w", err))
	}

	echo := tgbotapi.NewMessage(origin.ChatID, "tweet: "+url)
	echo.DisableWebPagePreview = true
	if err := b.transport.send(ctx, "echo tweet url", echo); err != nil {
		b.logger.Warn("failed to echo tweet url", "error", err)
	}

	if _, err := b.grabber.Dispatch(ctx, service.DispatchRequest{
		Origin:    domain.Origin{UserID: origin.UserID, ChatID: origin.ChatID},
		TweetIDs:  ids,
		Mode:      domain.ModeCommandReply,
		Transport: b.transport,
	}); err != nil {
		return b.failed(ctx, msg, fmt.Errorf("dispatch: %w", err))
	}

	// The echo replaces the command in the chat history.
	if err := b.transport.request(ctx, "delete command", tgbotapi.NewDeleteMessage(origin.ChatID, msg.MessageID)); err != nil {
		b.logger.Warn("failed to delete command message", "error", err)
	}
	return nil
}

func (b *Bot) cmdStats(ctx context.Context, msg *tgbotapi.Message) error {
	stats, err := b.grabber.Stats(ctx)
	if err != nil {
		return b.failed(ctx, msg, fmt.Errorf("read stats: %w", err))
	}

	b.logger.Info("sent stats", "stats", stats)
	return b.replyMarkdown(ctx, msg, formatStats(stats))
}

func (b *Bot) cmdResetStats(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.grabber.ResetStats(ctx); err != nil {
		return b.failed(ctx, msg, fmt.Errorf("reset stats: %w", err))
	}

	b.logger.Info("bot stats have been reset")
	return b.replyText(ctx, msg, MsgStatsReset)
}

func formatStats(s domain.Stats) string {
	bold := func(n int64) string {
		return "*" + tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, humanize.Comma(n)) + "*"
	}
	return "*Bot stats:*" +
		"\nIdentifiers resolved: " + bold(s.IdentifiersResolved) +
		"\nMedia delivered: " + bold(s.MediaDelivered) +
		"\nRequests served: " + bold(s.RequestsServed)
}

// handleMention resolves tweet links in a plain message. In groups only
// messages that @-mention the bot are answered.
func (b *Bot) handleMention(ctx context.Context, msg *tgbotapi.Message) error {
	private := msg.Chat != nil && msg.Chat.IsPrivate()
	if !private && !b.mentioned(msg) {
		return nil
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	origin := originOf(msg)

	ids, err := b.grabber.ExtractTweetIDs(ctx, origin, text)
	if errors.Is(err, domain.ErrNoTweetIDs) {
		b.grabber.RecordRequest(ctx)
		if private {
			return b.replyText(ctx, msg, MsgNothingResolved)
		}
		return nil
	}
	if err != nil {
		return b.failed(ctx, msg, fmt.Errorf("extract tweet ids: %w", err))
	}

	if _, err := b.grabber.Dispatch(ctx, service.DispatchRequest{
		Origin:    origin,
		TweetIDs:  ids,
		Mode:      domain.ModeCommandReply,
		Transport: b.transport,
	}); err != nil {
		return b.failed(ctx, msg, fmt.Errorf("dispatch: %w", err))
	}
	return nil
}

func (b *Bot) mentioned(msg *tgbotapi.Message) bool {
	if b.self.UserName == "" {
		return false
	}
	handle := "@" + strings.ToLower(b.self.UserName)
	return strings.Contains(strings.ToLower(msg.Text), handle) ||
		strings.Contains(strings.ToLower(msg.Caption), handle)
}

// failed shows the user a generic notice and hands err back for reporting.
func (b *Bot) failed(ctx context.Context, msg *tgbotapi.Message, err error) error {
	if rerr := b.replyText(context.WithoutCancel(ctx), msg, MsgGenericFailure); rerr != nil {
		b.logger.Warn("failed to send failure notice", "error", rerr)
	}
	return err
}

func (b *Bot) replyText(ctx context.Context, msg *tgbotapi.Message, text string) error {
	return b.transport.SendText(ctx, originOf(msg), text)
}

func (b *Bot) replyMarkdown(ctx context.Context, msg *tgbotapi.Message, text string) error {
	origin := originOf(msg)
	reply := tgbotapi.NewMessage(origin.ChatID, text)
	reply.ParseMode = tgbotapi.ModeMarkdownV2
	reply.ReplyToMessageID = origin.MessageID
	reply.AllowSendingWithoutReply = true
	return b.transport.send(ctx, "reply markdown", reply)
}
