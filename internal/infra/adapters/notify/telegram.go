// File: internal/infra/adapters/notify/telegram.go
package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"veracity-pipeline/internal/domain/ports/adapter"
)

var _ adapter.AlertNotifier = (*TelegramNotifier)(nil)

// TelegramNotifier posts operational alerts to a fixed ops channel.
// Delivery is best-effort; errors are returned for logging only.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	compLog := logger.With().Str("component", "TelegramNotifier").Logger()
	return &TelegramNotifier{bot: bot, chatID: chatID, log: &compLog}, nil
}

func (n *TelegramNotifier) Alert(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Error().Err(err).Msg("failed to send alert")
		return err
	}
	return nil
}
