package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"momentum/internal/calendar"
	"momentum/internal/service"
)

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	userID := message.From.ID

	switch state.Command {
	case commandNewBook:
		b.handleNewBookConversation(ctx, message, state)
	case commandLog:
		b.handleLogConversation(ctx, message, state)
	}

	// Clean up completed conversations
	if state.Step == stepDone {
		b.clearState(userID)
	}
}

// handleNewBookConversation asks for title, author, total pages and starting page
func (b *Bot) handleNewBookConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch state.Step {
	case 1: // Waiting for title
		if text == "" {
			b.sendText(chatID, "The title can't be empty. Please enter the book title:")
			return
		}
		state.Data["title"] = text
		state.Step = 2
		b.sendText(chatID, "✍️ Who is the author? Send - to skip.")

	case 2: // Waiting for author
		author := text
		if author == "-" {
			author = ""
		}
		state.Data["author"] = author
		state.Step = 3
		b.sendText(chatID, "📄 How many pages does the book have?")

	case 3: // Waiting for total pages
		total, ok := parseNumber(text)
		if !ok || total < 1 {
			b.sendText(chatID, "❌ Please enter a positive number of pages.\n\nExample: 320")
			return
		}
		state.Data["total"] = total
		state.Step = 4
		b.sendText(chatID, "🔖 Which page are you starting from? Send 0 to start at the beginning.")

	case 4: // Waiting for initial page
		initial, ok := parseNumber(text)
		total := state.Data["total"].(int)
		if !ok || initial > total {
			b.sendText(chatID, fmt.Sprintf("❌ Please enter a page between 0 and %d.", total))
			return
		}

		book, err := b.tracker.AddBook(ctx, service.NewBook{
			Title:       state.Data["title"].(string),
			Author:      state.Data["author"].(string),
			TotalPages:  total,
			InitialPage: initial,
		})
		if err != nil {
			b.logger.Warn("Failed to add book via bot", zap.Error(err), zap.Int64("user_id", message.From.ID))
			b.sendText(chatID, describeError(err))
		} else {
			b.sendText(chatID, fmt.Sprintf("✅ Book added!\n\n📚 %s\n📄 %d pages, starting at page %d\n\nUse /log to record progress.",
				book.Title, book.TotalPages, book.InitialPage))
		}
		state.Step = stepDone
	}
}

// handleLogConversation handles typed input of the progress flow
func (b *Bot) handleLogConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch state.Step {
	case 1: // Waiting for custom date input
		if _, ok := state.Data["awaiting_custom_date"]; !ok {
			// Not awaiting custom date, ignore text input
			return
		}

		date := b.tracker.Today()
		if !strings.EqualFold(text, "today") {
			d, err := calendar.Parse(text)
			if err != nil {
				b.sendText(chatID, "❌ Invalid date format. Please use YYYY-MM-DD\n\nExample: 2024-01-15")
				return
			}
			date = d
		}
		if date.After(b.tracker.Today()) {
			b.sendText(chatID, "❌ You can't log progress for a future date. Please enter another date:")
			return
		}

		delete(state.Data, "awaiting_custom_date")
		b.selectDate(ctx, chatID, state, date)

	case 2: // Waiting for book selection via keyboard
		b.sendText(chatID, "Please pick a book from the buttons above.")

	case 3: // Waiting for the page
		page, ok := parseNumber(text)
		if !ok {
			b.sendText(chatID, "❌ Please enter a page number.")
			return
		}
		b.logProgress(ctx, chatID, state, page)
	}
}

// selectDate stores the date and shows the book keyboard
func (b *Bot) selectDate(ctx context.Context, chatID int64, state *ConversationState, date calendar.Date) {
	books, err := b.tracker.ListBooks(ctx, service.ListFilter{})
	if err != nil {
		b.logger.Error("Failed to list books in /log", zap.Error(err))
		b.sendText(chatID, fmt.Sprintf("Error: %v", err))
		state.Step = stepDone
		return
	}
	if len(books) == 0 {
		b.sendText(chatID, "No unfinished books. Please add one first with /new_book")
		state.Step = stepDone
		return
	}

	state.Data["date"] = date
	state.Step = 2

	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(books))
	for _, book := range books {
		label := fmt.Sprintf("%s (%d%%)", shorten(book.Title, maxButtonTitle), book.ProgressPercent)
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, "book:"+book.ID))
	}
	b.sendWithKeyboard(chatID, fmt.Sprintf("📚 Select a book for %s:", date), twoColumnKeyboard(buttons))
}

// logProgress saves the page; bound violations keep the conversation open for another try
func (b *Bot) logProgress(ctx context.Context, chatID int64, state *ConversationState, page int) {
	date := state.Data["date"].(calendar.Date)
	bookID := state.Data["book_id"].(string)

	book, err := b.tracker.LogProgress(ctx, service.Progress{BookID: bookID, Date: date.String(), Page: page})
	if err != nil {
		b.sendText(chatID, describeError(err))
		var bound *service.BoundError
		if !errors.As(err, &bound) {
			state.Step = stepDone
		}
		return
	}

	view := service.NewBookView(book)
	saved, _ := book.CheckpointOn(date)
	var text strings.Builder
	text.WriteString("✅ Progress recorded!\n\n")
	text.WriteString(fmt.Sprintf("📅 Date: %s\n📚 Book: %s\n📄 Page: %d\n📈 Progress: %d of %d (%d%%)",
		date, book.Title, saved.Page, view.LatestPage, book.TotalPages, view.ProgressPercent))
	if book.IsFinished() {
		text.WriteString("\n\n🎉 You finished the book!")
	}
	b.sendText(chatID, text.String())
	state.Step = stepDone
}
