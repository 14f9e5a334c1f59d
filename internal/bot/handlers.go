package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	defer b.lockUser(message.From.ID)()

	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage",
				zap.Any("panic", r),
				zap.Int64("user_id", message.From.ID),
			)
			b.clearState(message.From.ID)
			b.sendText(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := message.From.ID
	ctx := context.Background()

	// Check if user is in a conversation
	if state, ok := b.getState(userID); ok {
		// If conversation is already complete, clean it up and process as new command
		if state.Step == stepDone {
			b.clearState(userID)
		} else if message.IsCommand() {
			// Allow any command to interrupt/cancel an ongoing conversation
			b.clearState(userID)
		} else {
			// Not a command, continue the conversation
			b.handleConversation(ctx, message, state)
			return
		}
	}

	// Handle commands
	if message.IsCommand() {
		switch message.Command() {
		case "start", "help":
			b.handleStart(message)
		case "new_book":
			b.handleNewBookStart(message)
		case "log":
			b.handleLogStart(ctx, message)
		case "books":
			b.handleBooks(ctx, message)
		case "stats":
			b.handleStats(ctx, message)
		case "streak":
			b.handleStreak(ctx, message)
		case "charts":
			b.handleCharts(ctx, message)
		case "heatmap":
			b.handleHeatmap(ctx, message)
		case "delete":
			b.handleDeleteStart(ctx, message)
		case "export":
			b.handleExport(ctx, message)
		default:
			b.sendText(message.Chat.ID, "Unknown command. Use /start to see available commands.")
		}
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	defer b.lockUser(query.From.ID)()

	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery",
				zap.Any("panic", r),
				zap.String("callback_data", query.Data),
			)
			b.clearState(query.From.ID)
		}
	}()

	userID := query.From.ID
	ctx := context.Background()

	// Answer the callback query to remove loading state
	b.answerCallback(query)

	// Check if user is in a conversation
	state, ok := b.getState(userID)
	if !ok || query.Message == nil {
		return
	}

	// Handle callback based on prefix
	data := query.Data
	switch {
	case strings.HasPrefix(data, "date:"):
		b.handleDateCallback(ctx, query, state)
	case strings.HasPrefix(data, "book:"):
		b.handleBookCallback(ctx, query, state)
	case strings.HasPrefix(data, "page:"):
		b.handlePageCallback(ctx, query, state)
	case strings.HasPrefix(data, "delete:"):
		b.handleDeleteCallback(ctx, query, state)
	}

	// Clean up completed conversations
	if state.Step == stepDone {
		b.clearState(userID)
	}
}
