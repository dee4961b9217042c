package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/xgrabbot/internal/config"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Connect authenticates against the Bot API and routes library logs through slog.
func Connect(cfg config.TelegramConfig, logger *slog.Logger) (*tgbotapi.BotAPI, error) {
	_ = tgbotapi.SetLogger(&slogBotLogger{log: logger.With("component", "tgbotapi")})

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return api, nil
}

// slogBotLogger adapts slog.Logger to tgbotapi.BotLogger.
type slogBotLogger struct {
	log *slog.Logger
}

func (s *slogBotLogger) Println(v ...any) {
	s.log.Warn(fmt.Sprint(v...))
}

func (s *slogBotLogger) Printf(format string, v ...any) {
	s.log.Warn(fmt.Sprintf(format, v...))
}

// errorCode returns the Bot API error code carried by err, or 0.
func errorCode(err error) int {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val.Code
	}
	return 0
}

func isForbidden(err error) bool {
	return errorCode(err) == http.StatusForbidden
}

func isConflict(err error) bool {
	return errorCode(err) == http.StatusConflict
}
