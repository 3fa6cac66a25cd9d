package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"investment-platform/internal/domain/ports/adapter"
)

var _ adapter.AdminNotifier = (*TelegramNotifier)(nil)

// TelegramNotifier pushes admin alerts to a Telegram chat. It is fire and
// forget: a delivery failure is logged and swallowed so the business
// transaction that triggered the alert is never affected.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram notifier: %w", err)
	}
	l := logger.With().Str("component", "TelegramNotifier").Logger()
	return &TelegramNotifier{bot: bot, chatID: chatID, log: &l}, nil
}

func (n *TelegramNotifier) NotifyAdmin(ctx context.Context, title, body string) error {
	msg := tgbotapi.NewMessage(n.chatID, title+"\n"+body)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Warn().Err(err).Str("title", title).Msg("admin alert delivery failed")
		return err
	}
	return nil
}
