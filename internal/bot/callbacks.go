package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"momentum/internal/calendar"
)

// handleDateCallback processes date selection from inline keyboard
func (b *Bot) handleDateCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != commandLog || state.Step != 1 {
		return
	}
	data := strings.TrimPrefix(query.Data, "date:")

	// Handle custom date option
	if data == "custom" {
		state.Data["awaiting_custom_date"] = true
		b.sendText(query.Message.Chat.ID, "📝 Please enter the date in format YYYY-MM-DD\n\nExample: 2024-01-15")
		return
	}

	today := b.tracker.Today()
	var date calendar.Date
	switch data {
	case "today":
		date = today
	case "yesterday":
		date = today.AddDays(-1)
	case "2daysago":
		date = today.AddDays(-2)
	case "3daysago":
		date = today.AddDays(-3)
	default:
		return
	}

	b.selectDate(ctx, query.Message.Chat.ID, state, date)
}

// handleBookCallback processes book selection and asks for the page
func (b *Bot) handleBookCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != commandLog || state.Step != 2 {
		return
	}
	chatID := query.Message.Chat.ID
	bookID := strings.TrimPrefix(query.Data, "book:")
	date := state.Data["date"].(calendar.Date)

	view, err := b.tracker.GetBook(ctx, bookID)
	if err != nil {
		b.logger.Warn("Failed to load selected book",
			zap.Error(err),
			zap.String("book_id", bookID),
			zap.Int64("user_id", query.From.ID),
		)
		b.sendText(chatID, describeError(err))
		state.Step = stepDone
		return
	}

	suggested, err := b.tracker.SuggestPage(ctx, bookID, date)
	if err != nil {
		b.sendText(chatID, describeError(err))
		state.Step = stepDone
		return
	}

	state.Data["book_id"] = bookID
	state.Step = 3

	text := fmt.Sprintf("📚 %s\n📅 %s\n📈 Currently at page %d of %d\n\nEnter the page you've read up to, or tap the suggestion:",
		view.Title, date, view.LatestPage, view.TotalPages)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ Page %d", suggested), fmt.Sprintf("page:%d", suggested)),
		),
	)
	b.sendWithKeyboard(chatID, text, keyboard)
}

// handlePageCallback accepts the suggested page
func (b *Bot) handlePageCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != commandLog || state.Step != 3 {
		return
	}
	page, err := strconv.Atoi(strings.TrimPrefix(query.Data, "page:"))
	if err != nil {
		return
	}
	b.logProgress(ctx, query.Message.Chat.ID, state, page)
}

// handleDeleteCallback deletes the selected book
func (b *Bot) handleDeleteCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != commandDelete {
		return
	}
	chatID := query.Message.Chat.ID
	bookID := strings.TrimPrefix(query.Data, "delete:")

	view, err := b.tracker.GetBook(ctx, bookID)
	if err == nil {
		err = b.tracker.DeleteBook(ctx, bookID)
	}
	if err != nil {
		b.sendText(chatID, describeError(err))
	} else {
		b.sendText(chatID, fmt.Sprintf("🗑 Deleted %q with %d entries.", view.Title, len(view.History)))
	}
	state.Step = stepDone
}
