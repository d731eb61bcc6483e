package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/conversation"
	"github.com/ykvlv/reminder-bot/internal/domain"
)

// Bot is the part of *tgbotapi.BotAPI the router and notifier use.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Conversation is the per-user reminder dialog.
type Conversation interface {
	State(userID int64) conversation.State
	Handle(ctx context.Context, userID int64, input string) (conversation.Result, error)
}

// Postponer reschedules the user's last delivered reminder.
type Postponer interface {
	Postpone(ctx context.Context, userID int64, command string) (time.Time, error)
}

// Router wires Telegram updates to the conversation engine and the postpone handler.
type Router struct {
	bot       Bot
	log       *zap.Logger
	conv      Conversation
	postponer Postponer
	loc       *time.Location
}

// NewRouter creates a new Telegram router. Times are shown to users in loc.
func NewRouter(bot Bot, log *zap.Logger, conv Conversation, postponer Postponer, loc *time.Location) *Router {
	return &Router{
		bot:       bot,
		log:       log,
		conv:      conv,
		postponer: postponer,
		loc:       loc,
	}
}

// HandleUpdate routes a single update to the appropriate handler.
// An unfinished dialog takes every text turn; postpone commands are only recognized while Idle.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/start"):
		r.handleStart(chatID)
	case r.conv.State(chatID) == conversation.Idle && domain.IsPostpone(text):
		r.handlePostpone(ctx, chatID, text)
	default:
		r.handleConversation(ctx, chatID, text)
	}
}
