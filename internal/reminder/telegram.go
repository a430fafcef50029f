package reminder

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"gmatprep/internal/logger"
)

// messageSender is the part of *tgbotapi.BotAPI the notifier uses
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts reminders to one chat
type TelegramNotifier struct {
	bot    messageSender
	chatID int64
	log    *logger.Logger
}

// NewTelegramNotifier connects to the bot API with token
func NewTelegramNotifier(token string, chatID int64, log *logger.Logger) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram reminders need TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create bot")
	}

	log.Debug("telegram notifier enabled", "bot", bot.Self.UserName)
	return newTelegramNotifier(bot, chatID, log), nil
}

func newTelegramNotifier(bot messageSender, chatID int64, log *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID, log: log}
}

func (n *TelegramNotifier) Name() string { return "telegram" }

// Notify sends the reminder text. The bot API has no context support, so
// ctx is only checked before sending.
func (n *TelegramNotifier) Notify(ctx context.Context, r Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, r.Text())
	sent, err := n.bot.Send(msg)
	if err != nil {
		return errors.Wrap(err, "failed to send telegram reminder")
	}

	n.log.Info("reminder posted to telegram", "message", sent.MessageID)
	return nil
}
