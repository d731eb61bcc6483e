package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/conversation"
	"github.com/ykvlv/reminder-bot/internal/domain"
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	r.send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendWithMarkup(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	r.send(msg)
}

func (r *Router) send(msg tgbotapi.MessageConfig) {
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", msg.ChatID), zap.Error(err))
	}
}

// --- Commands ---

func (r *Router) handleStart(chatID int64) {
	r.sendWithMarkup(chatID, startText, mainMenuKeyboard())
}

// --- Reminder dialog ---

func (r *Router) handleConversation(ctx context.Context, chatID int64, text string) {
	res, err := r.conv.Handle(ctx, chatID, text)
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		r.sendText(chatID, invalidDateText)
		return
	case errors.Is(err, domain.ErrInvalidTime):
		r.sendText(chatID, invalidTimeText)
		return
	case errors.Is(err, domain.ErrPastSchedule):
		r.sendText(chatID, pastTimeText)
		return
	case err != nil:
		r.log.Error("conversation turn failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendWithMarkup(chatID, createFailText, mainMenuKeyboard())
		return
	}

	switch res.Step {
	case conversation.StepAskText:
		r.sendWithMarkup(chatID, askTextText, removeKeyboard())
	case conversation.StepAskDate:
		r.sendText(chatID, askDateText)
	case conversation.StepAskTime:
		r.sendText(chatID, askTimeText)
	case conversation.StepCreated:
		at := res.Notification.ScheduledAt.In(r.loc)
		body := fmt.Sprintf(createdFmt, at.Format("02.01.2006"), at.Format("15:04"), res.Notification.Text)
		r.sendWithMarkup(chatID, body, mainMenuKeyboard())
	default:
		// Not part of any flow: ignore
	}
}

// --- Postpone ---

func (r *Router) handlePostpone(ctx context.Context, chatID int64, text string) {
	next, err := r.postponer.Postpone(ctx, chatID, text)
	switch {
	case errors.Is(err, domain.ErrNoActiveNotification):
		r.sendWithMarkup(chatID, noActiveText+"\n\n"+postponeUsageText, removeKeyboard())
		return
	case errors.Is(err, domain.ErrNotificationGone):
		r.sendWithMarkup(chatID, goneText+"\n\n"+postponeUsageText, removeKeyboard())
		return
	case errors.Is(err, domain.ErrMalformedOffset):
		r.sendWithMarkup(chatID, postponeUsageText, removeKeyboard())
		return
	case err != nil:
		r.log.Error("postpone failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendWithMarkup(chatID, postponeFailText, removeKeyboard())
		return
	}

	offset := strings.TrimSpace(strings.TrimPrefix(text, domain.PostponePrefix))
	body := fmt.Sprintf(postponedFmt, offset, next.In(r.loc).Format(domain.DisplayLayout))
	r.sendWithMarkup(chatID, body, removeKeyboard())
}
