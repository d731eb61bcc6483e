package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/reminder-bot/internal/conversation"
	"github.com/ykvlv/reminder-bot/internal/domain"
)

// UI texts in English
const (
	startText = "⏰ I am a reminder bot.\n\n" +
		"Press the button below to create a new reminder."
	askTextText      = "Enter the reminder text:"
	askDateText      = "Enter the reminder date as DD.MM.YYYY (e.g., 31.12.2023):"
	askTimeText      = "Enter the reminder time as HH:MM (e.g., 14:30):"
	invalidDateText  = "❌ Invalid date format. Enter DD.MM.YYYY"
	invalidTimeText  = "❌ Invalid time format. Enter HH:MM"
	pastTimeText     = "❌ That time has already passed. Enter a future date and time."
	createFailText   = "Could not save the reminder. Please start again."
	createdFmt       = "✅ Reminder set for %s at %s\n📝 Text: %s"
	deliveryFmt      = "🔔 Reminder: %s"
	postponedFmt     = "⏳ Reminder postponed by %s.\nNew time: %s"
	noActiveText     = "❌ There are no delivered reminders to postpone."
	goneText         = "❌ That reminder is no longer active."
	postponeFailText = "Could not postpone the reminder."
)

// postponeUsageText lists the accepted postpone commands.
var postponeUsageText = "❌ Use one of the formats:\n" + strings.Join(domain.CanonicalOffsets, "\n")

// mainMenuKeyboard holds the single create-reminder button.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(conversation.CreateCommand),
		),
	)
}

// postponeKeyboard offers the canonical postpone offsets, one per row.
func postponeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(domain.CanonicalOffsets))
	for _, o := range domain.CanonicalOffsets {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(o)))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

func removeKeyboard() tgbotapi.ReplyKeyboardRemove {
	return tgbotapi.NewRemoveKeyboard(true)
}
