package bot

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"momentum/internal/render"
	"momentum/internal/service"
)

// NewBot creates a new Telegram bot
func NewBot(token string, tracker *service.Tracker, allowedUserIDs []int64, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	b := newBot(tracker, allowedUserIDs, logger)
	b.api = api
	b.out = api
	return b, nil
}

// newBot builds a bot without a Telegram connection
func newBot(tracker *service.Tracker, allowedUserIDs []int64, logger *zap.Logger) *Bot {
	allowedUsers := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowedUsers[id] = true
	}

	return &Bot{
		tracker:      tracker,
		render:       render.Plain(),
		allowedUsers: allowedUsers,
		states:       make(map[int64]*ConversationState),
		userLocks:    make(map[int64]*sync.Mutex),
		logger:       logger,
	}
}

// Token returns the bot token, used to verify Mini App init data
func (b *Bot) Token() string {
	if b.api == nil {
		return ""
	}
	return b.api.Token
}

// IsAllowed reports whether a Telegram user may use the bot
func (b *Bot) IsAllowed(userID int64) bool {
	return b.allowedUsers[userID]
}
