package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// WebhookPath is the HTTP path Telegram posts updates to in webhook mode
const WebhookPath = "/telegram-webhook"

// allowedUpdates limits delivery to the update kinds the bot handles
var allowedUpdates = []string{"message", "callback_query"}

// Start polls Telegram for updates and blocks until Stop is called
func (b *Bot) Start() error {
	b.logger.Info("Starting bot in polling mode")

	// Remove webhook (if any was set previously)
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = allowedUpdates

	b.logger.Info("Waiting for updates...")
	for update := range b.api.GetUpdatesChan(u) {
		b.HandleWebhookUpdate(update)
	}
	return nil
}

// Stop stops polling for updates
func (b *Bot) Stop() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
}

// StartWebhook registers baseURL + WebhookPath with Telegram
func (b *Bot) StartWebhook(baseURL string) error {
	webhookConfig, err := tgbotapi.NewWebhook(baseURL + WebhookPath)
	if err != nil {
		return err
	}
	webhookConfig.MaxConnections = 40
	webhookConfig.AllowedUpdates = allowedUpdates

	if _, err := b.api.Request(webhookConfig); err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("webhook_url", baseURL))
		return err
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
		return nil
	}
	b.logger.Info("Webhook set",
		zap.String("url", info.URL),
		zap.Int("pending_updates", info.PendingUpdateCount),
	)
	return nil
}

// HandleWebhookUpdate dispatches one update from either delivery mode.
// Updates from users outside the allow-list are dropped.
func (b *Bot) HandleWebhookUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		if !b.authorize(update.Message.From, "message") {
			b.sendText(update.Message.Chat.ID, "Sorry, you are not authorized to use this bot.")
			return
		}
		b.handleMessage(update.Message)

	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		if !b.authorize(update.CallbackQuery.From, "callback") {
			return
		}
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

func (b *Bot) authorize(user *tgbotapi.User, kind string) bool {
	if b.IsAllowed(user.ID) {
		return true
	}
	b.logger.Warn("Unauthorized access attempt",
		zap.String("kind", kind),
		zap.Int64("user_id", user.ID),
		zap.String("username", user.UserName),
	)
	return false
}
