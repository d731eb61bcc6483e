package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/reminder-bot/internal/domain"
)

// Notifier sends due reminders with the postpone keyboard.
// It satisfies reminder.Sender.
type Notifier struct {
	bot Bot
}

// NewNotifier creates a Notifier.
func NewNotifier(bot Bot) *Notifier {
	return &Notifier{bot: bot}
}

// Deliver sends the reminder text to the owning user's chat.
func (n *Notifier) Deliver(ctx context.Context, note domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(note.UserID, fmt.Sprintf(deliveryFmt, note.Text))
	msg.ReplyMarkup = postponeKeyboard()
	_, err := n.bot.Send(msg)
	return err
}
