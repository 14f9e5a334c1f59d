package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"momentum/internal/service"
	"momentum/internal/validation"
)

// maxButtonTitle keeps inline keyboard labels readable on phones
const maxButtonTitle = 28

// sendMessage sends any Chattable, logging failures
func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if b.out == nil {
		return // For testing
	}
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

// sendText sends a plain text message
func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// sendPre sends preformatted text, e.g. rendered charts
func (b *Bot) sendPre(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "<pre>"+html.EscapeString(strings.TrimRight(text, "\n"))+"</pre>")
	msg.ParseMode = tgbotapi.ModeHTML
	b.sendMessage(msg)
}

// sendWithKeyboard sends text with an inline keyboard
func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	b.sendMessage(msg)
}

// answerCallback removes the loading state of an inline button
func (b *Bot) answerCallback(query *tgbotapi.CallbackQuery) {
	if b.out == nil {
		return
	}
	if _, err := b.out.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}

// twoColumnKeyboard lays out buttons two per row
func twoColumnKeyboard(buttons []tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += 2 {
		rows = append(rows, buttons[i:min(i+2, len(buttons))])
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// shorten cuts s to n runes, marking the cut with an ellipsis
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// parseNumber accepts a non-negative integer, ignoring surrounding spaces
func parseNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// describeError turns service errors into a user-facing message
func describeError(err error) string {
	var bound *service.BoundError
	var verr *validation.Error
	switch {
	case errors.As(err, &bound) && errors.Is(err, service.ErrPageBelowPrevious):
		return fmt.Sprintf("❌ The page can't be lower than %d, an earlier entry already reached it.", bound.Limit)
	case errors.As(err, &bound) && errors.Is(err, service.ErrPageAboveNext):
		return fmt.Sprintf("❌ The page can't be higher than %d, a later entry is at that page.", bound.Limit)
	case errors.Is(err, service.ErrFutureDate):
		return "❌ You can't log progress for a future date."
	case errors.Is(err, service.ErrBookNotFound):
		return "❌ That book no longer exists."
	case errors.As(err, &verr):
		return "❌ " + verr.Error()
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
