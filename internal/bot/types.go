package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"momentum/internal/render"
	"momentum/internal/service"
)

// Conversation commands
const (
	commandNewBook = "new_book"
	commandLog     = "log"
	commandDelete  = "delete"
)

// stepDone marks a finished conversation; its state is dropped after handling
const stepDone = -1

// sender is the part of the Telegram API the handlers talk to
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api          *tgbotapi.BotAPI
	out          sender
	tracker      *service.Tracker
	render       *render.Renderer
	allowedUsers map[int64]bool
	states       map[int64]*ConversationState
	statesMu     sync.RWMutex
	userLocks    map[int64]*sync.Mutex
	userLocksMu  sync.Mutex
	logger       *zap.Logger
}

// ConversationState tracks the state of multi-step commands
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]interface{}
}

func newState(command string) *ConversationState {
	return &ConversationState{
		Command: command,
		Step:    1,
		Data:    make(map[string]interface{}),
	}
}

func (b *Bot) getState(userID int64) (*ConversationState, bool) {
	b.statesMu.RLock()
	defer b.statesMu.RUnlock()
	state, ok := b.states[userID]
	return state, ok
}

func (b *Bot) setState(userID int64, state *ConversationState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.states[userID] = state
}

func (b *Bot) clearState(userID int64) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	delete(b.states, userID)
}

// lockUser serializes update handling for one user; the returned func unlocks.
// Conversation state is only touched while this lock is held.
func (b *Bot) lockUser(userID int64) func() {
	b.userLocksMu.Lock()
	mu, ok := b.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		b.userLocks[userID] = mu
	}
	b.userLocksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
