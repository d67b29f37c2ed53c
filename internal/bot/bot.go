package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"notepad/internal/logging"
	"notepad/internal/service"
)

// sender is the part of the Telegram API the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services are the request surface the bot drives.
type Services struct {
	Notes      *service.NoteService
	Categories *service.CategoryService
	Picker     *service.CategoryPicker
	Digest     *service.DigestService
}

// Bot is the Telegram front end of the notepad. Each chat edits at most one
// note at a time.
type Bot struct {
	client *tgbotapi.BotAPI
	api    sender
	svc    Services
	log    logging.Logger

	// ownerChat restricts the bot to one chat when non-zero.
	ownerChat int64

	mu             sync.Mutex
	sessions       map[int64]*service.Session
	pendingDeletes map[int64]uint
	chats          map[int64]struct{}
}

func New(token string, ownerChat int64, svc Services, log logging.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info(context.Background(), "bot authorized", "account", api.Self.UserName)

	b := newBot(api, ownerChat, svc, log)
	b.client = api
	return b, nil
}

func newBot(api sender, ownerChat int64, svc Services, log logging.Logger) *Bot {
	return &Bot{
		api:            api,
		svc:            svc,
		log:            log,
		ownerChat:      ownerChat,
		sessions:       make(map[int64]*service.Session),
		pendingDeletes: make(map[int64]uint),
		chats:          make(map[int64]struct{}),
	}
}

// Start begins polling updates until ctx is cancelled. Open sessions are
// paused before it returns.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	b.log.Info(ctx, "start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	b.Shutdown(shutdownCtx)
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || !b.allowed(cb.Message.Chat) {
			return
		}
		if err := b.handleCallback(ctx, cb); err != nil {
			b.log.Error(ctx, "handle callback", "chat", cb.Message.Chat.ID, "error", err)
		}
	case update.Message != nil:
		msg := update.Message
		if !b.allowed(msg.Chat) {
			return
		}
		if err := b.handleMessage(ctx, msg); err != nil {
			b.log.Error(ctx, "handle message", "chat", msg.Chat.ID, "error", err)
		}
	}
}

func (b *Bot) allowed(chat *tgbotapi.Chat) bool {
	if chat == nil {
		return false
	}
	if b.ownerChat != 0 {
		return chat.ID == b.ownerChat
	}
	return chat.IsPrivate()
}

// Shutdown pauses every open session so buffered edits are written.
func (b *Bot) Shutdown(ctx context.Context) {
	b.mu.Lock()
	sessions := make(map[int64]*service.Session, len(b.sessions))
	for chat, s := range b.sessions {
		sessions[chat] = s
	}
	b.mu.Unlock()

	for chat, s := range sessions {
		if err := s.Pause(ctx); err != nil {
			b.log.Error(ctx, "pause session", "chat", chat, "session", s.ID(), "error", err)
		}
	}
}

// SendDigests sends the to-do digest to the owner chat, or to every chat
// that used the bot since it started.
func (b *Bot) SendDigests(ctx context.Context) error {
	digest, err := b.svc.Digest.Build(ctx, time.Now())
	if err != nil {
		return err
	}
	text := digest.HTML()
	for _, chatID := range b.digestChats() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(chatID, text); err != nil {
			b.log.Error(ctx, "send digest", "chat", chatID, "error", err)
		}
	}
	return nil
}

func (b *Bot) digestChats() []int64 {
	if b.ownerChat != 0 {
		return []int64{b.ownerChat}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	chats := make([]int64, 0, len(b.chats))
	for id := range b.chats {
		chats = append(chats, id)
	}
	return chats
}

func (b *Bot) rememberChat(chatID int64) {
	b.mu.Lock()
	b.chats[chatID] = struct{}{}
	b.mu.Unlock()
}

func (b *Bot) session(chatID int64) *service.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) setSession(chatID int64, s *service.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == nil {
		delete(b.sessions, chatID)
		return
	}
	b.sessions[chatID] = s
}

func (b *Bot) pendingDelete(chatID int64) (uint, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.pendingDeletes[chatID]
	return id, ok
}

func (b *Bot) setPendingDelete(chatID int64, id uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == 0 {
		delete(b.pendingDeletes, chatID)
		return
	}
	b.pendingDeletes[chatID] = id
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// sendError tells the user why a request failed. Storage failures keep the
// user informed that recent edits may be unsaved.
func (b *Bot) sendError(ctx context.Context, chatID int64, action string, err error) error {
	b.log.Warn(ctx, action+" failed", "chat", chatID, "error", err)
	return b.sendText(chatID, fmt.Sprintf("⚠️ %s: %s", escape(action), userMessage(err)))
}
