package notify

import (
	"context"
	"log/slog"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"gigboard/internal/models"
)

// Notifier receives reconciled state changes and emits user-facing
// notifications. Delivery is best effort: callers log failures and move on,
// a notification must never fail a payment operation.
type Notifier interface {
	Notify(ctx context.Context, user models.User, message string) error
}

// TelegramNotifier delivers notifications as Telegram messages to users who
// linked a chat id.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
	log *slog.Logger
}

// NewTelegramNotifier connects the bot API.
func NewTelegramNotifier(token string, log *slog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info("telegram notifier ready", "bot", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, log: log}, nil
}

func (n *TelegramNotifier) Notify(_ context.Context, user models.User, message string) error {
	if !user.ChatID.Valid {
		n.log.Debug("user has no chat id, notification skipped", "user_id", user.ID)
		return nil
	}
	msg := tgbotapi.NewMessage(user.ChatID.Int64, message)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Warn("telegram send failed", "user_id", user.ID, "error", err)
		return err
	}
	return nil
}

// LogNotifier is used when no Telegram token is configured: notifications
// are only written to the log.
type LogNotifier struct {
	Log *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, user models.User, message string) error {
	n.Log.Info("notification", "user_id", user.ID, "message", message)
	return nil
}
