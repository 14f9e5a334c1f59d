package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"momentum/internal/service"
	"momentum/internal/stats"
)

// heatmapMonths keeps the heatmap inside one Telegram message
const heatmapMonths = 12

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := `Welcome to Momentum! 📚

Available commands:
/new_book - Add a book
/log - Record the page you've read up to
/books - Books in progress (/books all, /books <search>)
/stats - Reading overview
/streak - Current and longest streak
/charts - Pages per day, week and month
/heatmap - Daily pages over the last year
/delete - Delete a book
/export - Download a backup`

	b.sendText(message.Chat.ID, text)
}

// handleNewBookStart initiates the new book conversation
func (b *Bot) handleNewBookStart(message *tgbotapi.Message) {
	b.setState(message.From.ID, newState(commandNewBook))
	b.sendText(message.Chat.ID, "📖 Please enter the book title:")
}

// handleLogStart initiates the progress conversation
func (b *Bot) handleLogStart(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.tracker.ListBooks(ctx, service.ListFilter{})
	if err != nil {
		b.logger.Error("Failed to list books for /log", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}

	if len(books) == 0 {
		b.sendText(message.Chat.ID, "No unfinished books. Please add one first with /new_book")
		return
	}

	b.setState(message.From.ID, newState(commandLog))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📆 Today", "date:today"),
			tgbotapi.NewInlineKeyboardButtonData("⏮ Yesterday", "date:yesterday"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏮⏮ 2 days ago", "date:2daysago"),
			tgbotapi.NewInlineKeyboardButtonData("⏮⏮⏮ 3 days ago", "date:3daysago"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Custom date", "date:custom"),
		),
	)
	b.sendWithKeyboard(message.Chat.ID, "📅 Select reading date:", keyboard)
}

// handleBooks lists books; "all" includes finished ones, anything else is a search
func (b *Bot) handleBooks(ctx context.Context, message *tgbotapi.Message) {
	filter := service.ListFilter{}
	args := strings.TrimSpace(message.CommandArguments())
	if strings.EqualFold(args, "all") {
		filter.IncludeFinished = true
	} else if args != "" {
		filter.Query = args
		filter.IncludeFinished = true
	}

	books, err := b.tracker.ListBooks(ctx, filter)
	if err != nil {
		b.logger.Error("Failed to list books", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}

	if len(books) == 0 {
		if filter.Query != "" {
			b.sendText(message.Chat.ID, fmt.Sprintf("No books match %q.", filter.Query))
		} else {
			b.sendText(message.Chat.ID, "No books in progress. Add one with /new_book")
		}
		return
	}

	b.sendPre(message.Chat.ID, b.render.Books(books))
}

// handleStats shows the KPI overview
func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) {
	k, err := b.tracker.Overview(ctx)
	if err != nil {
		b.logger.Error("Failed to compute overview", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.sendPre(message.Chat.ID, b.render.Overview(k))
}

// handleStreak shows the reading streaks
func (b *Bot) handleStreak(ctx context.Context, message *tgbotapi.Message) {
	k, err := b.tracker.Overview(ctx)
	if err != nil {
		b.logger.Error("Failed to compute streaks", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.sendText(message.Chat.ID, streakText(k.Streaks))
}

// streakText formats the streak message with a hint about the record
func streakText(s stats.Streaks) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("🔥 Current streak: %d days\n", s.Current))
	text.WriteString(fmt.Sprintf("🏆 Longest streak: %d days\n\n", s.Longest))

	switch {
	case s.Current == 0:
		text.WriteString("No reading today yet. Log some pages to start a streak!")
	case s.CurrentIsLongest():
		text.WriteString("You're on your longest streak ever. Keep going!")
	default:
		text.WriteString(fmt.Sprintf("%d more days to beat your record.", s.Longest-s.Current+1))
	}
	return text.String()
}

// handleCharts sends the day, week and month charts
func (b *Bot) handleCharts(ctx context.Context, message *tgbotapi.Message) {
	c, err := b.tracker.Charts(ctx)
	if err != nil {
		b.logger.Error("Failed to compute charts", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}

	if c.LifetimePages == 0 {
		b.sendText(message.Chat.ID, "Nothing to chart yet. Use /log to record progress.")
		return
	}

	b.sendPre(message.Chat.ID, b.render.Series("📊 Last 12 days", c.Days12,
		fmt.Sprintf("sum %.0f, 7-day average %.1f/day", c.Days12.Sum(), c.CurrentAverage7)))
	b.sendPre(message.Chat.ID, b.render.Series("📊 Last 12 weeks", c.Weeks12,
		fmt.Sprintf("sum %.0f, best %.0f", c.Weeks12.Sum(), c.Weeks12.Max())))
	b.sendPre(message.Chat.ID, b.render.Series("📊 Last 12 months", c.Months12,
		fmt.Sprintf("lifetime %d pages", c.LifetimePages)))
}

// handleHeatmap sends the month by day heatmap
func (b *Bot) handleHeatmap(ctx context.Context, message *tgbotapi.Message) {
	h, err := b.tracker.Heatmap(ctx, heatmapMonths)
	if err != nil {
		b.logger.Error("Failed to compute heatmap", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.sendPre(message.Chat.ID, b.render.Heatmap(h))
}

// handleDeleteStart shows every book for deletion
func (b *Bot) handleDeleteStart(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.tracker.ListBooks(ctx, service.ListFilter{IncludeFinished: true})
	if err != nil {
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(books) == 0 {
		b.sendText(message.Chat.ID, "There are no books to delete.")
		return
	}

	b.setState(message.From.ID, newState(commandDelete))

	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(books))
	for _, book := range books {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			"🗑 "+shorten(book.Title, maxButtonTitle), "delete:"+book.ID))
	}
	b.sendWithKeyboard(message.Chat.ID, "Select the book to delete. Its whole history is removed.", twoColumnKeyboard(buttons))
}

// handleExport sends the backup document as a file
func (b *Bot) handleExport(ctx context.Context, message *tgbotapi.Message) {
	data, err := b.tracker.ExportBytes(ctx)
	if err != nil {
		b.logger.Error("Failed to export books", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}

	name := fmt.Sprintf("momentum-%s.json", b.tracker.Today())
	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FileBytes{Name: name, Bytes: data})
	b.sendMessage(doc)
}
