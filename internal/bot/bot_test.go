package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notepad/internal/common"
	"notepad/internal/logging"
	"notepad/internal/model"
	"notepad/internal/repository"
	"notepad/internal/service"
)

const chatID int64 = 7

type fakeAPI struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	bot   *Bot
	api   *fakeAPI
	notes *repository.NoteRepository
	cats  *repository.CategoryRepository
}

func newFixture(t *testing.T, ownerChat int64) *fixture {
	t.Helper()
	db, err := repository.NewDB(":memory:", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logging.Nop()
	cats := repository.NewCategoryRepository(db)
	notes := repository.NewNoteRepository(db)
	cascade := service.NewCascadeCoordinator(db, cats, notes, log)
	api := &fakeAPI{}
	b := newBot(api, ownerChat, Services{
		Notes:      service.NewNoteService(notes, log),
		Categories: service.NewCategoryService(cats, cascade, log),
		Picker:     service.NewCategoryPicker(cats),
		Digest:     service.NewDigestService(notes, cats),
	}, log)
	return &fixture{bot: b, api: api, notes: notes, cats: cats}
}

func (f *fixture) send(t *testing.T, text string) tgbotapi.MessageConfig {
	t.Helper()
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		From: &tgbotapi.User{ID: chatID, FirstName: "Ann"},
	}
	if len(text) > 0 && text[0] == '/' {
		length := len(text)
		for i, r := range text {
			if r == ' ' {
				length = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	f.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: msg})
	return f.api.last(t)
}

func (f *fixture) click(t *testing.T, data string) tgbotapi.MessageConfig {
	t.Helper()
	f.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID, Type: "private"}},
	}})
	return f.api.last(t)
}

func (f *fixture) openNoteID(t *testing.T) uint {
	t.Helper()
	s := f.bot.session(chatID)
	require.NotNil(t, s)
	return s.NoteID()
}

func TestBot_WriteNoteFlow(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	reply := f.send(t, "/new")
	assert.Contains(t, reply.Text, "started")
	id := f.openNoteID(t)

	f.send(t, "Buy milk\nand eggs")
	f.send(t, "/todo on")
	reply = f.send(t, "/due 2026-11-30 18:00")
	assert.Contains(t, reply.Text, "2026-11-30 18:00")

	reply = f.send(t, "/close")
	assert.Contains(t, reply.Text, "Buy milk")
	assert.Nil(t, f.bot.session(chatID))

	note, err := f.notes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk\nand eggs", note.Body)
	assert.Equal(t, "Buy milk", note.Title)
	assert.True(t, note.IsTodo)
	require.NotNil(t, note.DueDate)

	reply = f.send(t, "/notes")
	assert.Contains(t, reply.Text, "Buy milk")
	_, isInline := reply.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.True(t, isInline)

	reply = f.click(t, fmt.Sprintf("open:%d", id))
	assert.Contains(t, reply.Text, "and eggs")
	reply = f.send(t, "/done")
	assert.Contains(t, reply.Text, "done")

	note, err = f.notes.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, note.IsCompleted)
}

func TestBot_CancelNewNoteDiscardsRow(t *testing.T) {
	f := newFixture(t, 0)

	f.send(t, "/new draft")
	id := f.openNoteID(t)
	reply := f.send(t, "/cancel")
	assert.Contains(t, reply.Text, "discarded")

	_, err := f.notes.Get(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBot_NewClosesPreviousNote(t *testing.T) {
	f := newFixture(t, 0)

	f.send(t, "/new first note")
	first := f.openNoteID(t)
	f.send(t, "/new")
	assert.NotEqual(t, first, f.openNoteID(t))

	note, err := f.notes.Get(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, "first note", note.Body)
}

func TestBot_PasteAndDelete(t *testing.T) {
	f := newFixture(t, 0)

	f.send(t, "/new hello world")
	id := f.openNoteID(t)
	f.send(t, "/cursor 5")
	f.send(t, "/paste ,")

	note, err := f.notes.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", note.Body)

	reply := f.send(t, "/delete")
	assert.Contains(t, reply.Text, "deleted")
	_, err = f.notes.Get(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBot_NoOpenNote(t *testing.T) {
	f := newFixture(t, 0)

	reply := f.send(t, "loose text")
	assert.Contains(t, reply.Text, "No note is open")
	reply = f.send(t, "/save")
	assert.Contains(t, reply.Text, "No note is open")
}

func TestBot_DueRequiresTodo(t *testing.T) {
	f := newFixture(t, 0)

	f.send(t, "/new")
	reply := f.send(t, "/due 2026-11-30")
	assert.Contains(t, reply.Text, "not valid")
	reply = f.send(t, "/due tomorrow")
	assert.Contains(t, reply.Text, "/due 2026-11-30")
}

func TestBot_CategoryDeleteConfirmation(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	reply := f.send(t, "/newcategory Work")
	assert.Contains(t, reply.Text, "Work")
	work, err := f.cats.List(ctx)
	require.NoError(t, err)
	require.Len(t, work, 2)
	workID := work[1].ID

	f.send(t, "/new report")
	noteID := f.openNoteID(t)
	f.send(t, fmt.Sprintf("/category %d", workID))
	f.send(t, "/close")

	reply = f.send(t, fmt.Sprintf("/deletecategory %d", workID))
	assert.Contains(t, reply.Text, "1 note(s) will move")
	_, isInline := reply.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.True(t, isInline)

	reply = f.click(t, fmt.Sprintf("delcat:%d", workID))
	assert.Contains(t, reply.Text, "1 note(s) moved")

	note, err := f.notes.Get(ctx, noteID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryID, note.CategoryID)

	// a second confirmation click does nothing
	reply = f.click(t, fmt.Sprintf("delcat:%d", workID))
	assert.Contains(t, reply.Text, "expired")

	reply = f.send(t, "/deletecategory 1")
	assert.Contains(t, reply.Text, "default category")
}

func TestBot_RenameCategory(t *testing.T) {
	f := newFixture(t, 0)

	f.send(t, "/newcategory Home")
	reply := f.send(t, "/renamecategory 2 House")
	assert.Contains(t, reply.Text, "House")
	reply = f.send(t, "/renamecategory 1 Misc")
	assert.Contains(t, reply.Text, "default category")
	reply = f.send(t, "/newcategory House")
	assert.Contains(t, reply.Text, "already exists")
}

func TestBot_OwnerChatOnly(t *testing.T) {
	f := newFixture(t, 99)

	f.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "hello",
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
	}})
	assert.Empty(t, f.api.sent)
	assert.Equal(t, []int64{99}, f.bot.digestChats())
}

func TestBot_DigestAndShutdown(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.send(t, "/new pay rent")
	id := f.openNoteID(t)
	f.send(t, "/todo")
	f.send(t, "changed text")

	f.bot.Shutdown(ctx)
	note, err := f.notes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "changed text", note.Body)

	require.NoError(t, f.bot.SendDigests(ctx))
	reply := f.api.last(t)
	assert.Equal(t, chatID, reply.ChatID)
	assert.Contains(t, reply.Text, "changed text")
}

func TestParseSwitch(t *testing.T) {
	v, err := parseSwitch("", true)
	require.NoError(t, err)
	assert.True(t, v)
	v, err = parseSwitch("OFF", true)
	require.NoError(t, err)
	assert.False(t, v)
	_, err = parseSwitch("maybe", true)
	assert.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, userMessage(fmt.Errorf("x: %w", common.ErrStorageFailure)), "unsaved")
	assert.Contains(t, userMessage(common.ErrDuplicateName), "already exists")
	assert.Equal(t, "something went wrong.", userMessage(errors.New("boom")))
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "short", shortTitle("  short ", 10))
	assert.Equal(t, "abcd…", shortTitle("abcdefgh", 5))
}
