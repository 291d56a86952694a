package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spacehub/internal/domain"
	"spacehub/internal/logging"
	"spacehub/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// ErrNoChat is returned when the recipient has no linked Telegram chat.
var ErrNoChat = errors.New("telegram chat id is not set")

// TelegramNotifier pushes user notifications to Telegram chats.
type TelegramNotifier struct {
	bot    domain.TelegramSender
	logger zerolog.Logger
}

// NewTelegramBot connects to the Bot API with the given token.
func NewTelegramBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func NewTelegramNotifier(bot domain.TelegramSender, logger *zerolog.Logger) *TelegramNotifier {
	l := logging.Component(logger, "telegram")
	return &TelegramNotifier{bot: bot, logger: l}
}

// Notify sends a plain text message to the chat.
func (n *TelegramNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	sent, err := n.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	n.logger.Debug().Int64("chat_id", chatID).Int("message_id", sent.MessageID).Msg("telegram message sent")
	return nil
}

// FormatNotification renders a notification as a Telegram message body.
func FormatNotification(notification *models.Notification) string {
	var sb strings.Builder
	sb.WriteString(notification.Title)
	if notification.Message != "" {
		sb.WriteString("\n\n")
		sb.WriteString(notification.Message)
	}
	if notification.BookingID != nil {
		fmt.Fprintf(&sb, "\n\nБронь #%d", *notification.BookingID)
	}
	return sb.String()
}
