package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"notepad/internal/model"
	"notepad/internal/service"
)

const (
	cbOpenPrefix      = "open:"
	cbPickPrefix      = "pick:"
	cbDelCatPrefix    = "delcat:"
	cbKeepCatPrefix   = "keepcat:"
	menuLabelNewNote  = "📝 New note"
	menuLabelNotes    = "📋 Notes"
	menuLabelCategory = "📂 Categories"
	menuLabelHelp     = "ℹ️ Help"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	b.rememberChat(chatID)

	if msg.IsCommand() {
		b.log.Info(ctx, "command", "chat", chatID, "command", msg.Command())
		return b.handleCommand(ctx, msg)
	}

	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewNote:
		return b.handleNew(ctx, chatID, "")
	case menuLabelNotes:
		return b.handleNotes(ctx, chatID)
	case menuLabelCategory:
		return b.handleCategories(ctx, chatID)
	case menuLabelHelp:
		return b.handleHelp(chatID)
	}

	s := b.session(chatID)
	if s == nil {
		return b.sendText(chatID, "No note is open. Send /new to start one or /notes to pick one.")
	}
	if err := s.SetBody(ctx, msg.Text); err != nil {
		return b.failSession(ctx, chatID, s, "Update text", err)
	}
	return b.sendText(chatID, fmt.Sprintf("✏️ Text of %s updated. /save to store it.", noteRef(s.NoteID(), s.Title())))
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(chatID)
	case "notes":
		return b.handleNotes(ctx, chatID)
	case "new":
		return b.handleNew(ctx, chatID, args)
	case "open":
		id, err := parseID(args)
		if err != nil {
			return b.sendText(chatID, "Give the note number: /open 12")
		}
		return b.openNote(ctx, chatID, id)
	case "show":
		return b.withSession(ctx, chatID, func(s *service.Session) error {
			return b.sendText(chatID, formatSession(s, time.Now()))
		})
	case "paste":
		return b.handlePaste(ctx, chatID, args)
	case "cursor":
		return b.handleCursor(ctx, chatID, args)
	case "todo":
		return b.handleTodo(ctx, chatID, args)
	case "done":
		return b.handleDone(ctx, chatID, args)
	case "due":
		return b.handleDue(ctx, chatID, args)
	case "category":
		return b.handleNoteCategory(ctx, chatID, args)
	case "save":
		return b.withSession(ctx, chatID, func(s *service.Session) error {
			if err := s.Save(ctx); err != nil {
				return b.failSession(ctx, chatID, s, "Save", err)
			}
			return b.sendText(chatID, fmt.Sprintf("💾 Saved %s.", noteRef(s.NoteID(), s.Title())))
		})
	case "close":
		return b.withSession(ctx, chatID, func(s *service.Session) error {
			if err := s.Close(ctx); err != nil {
				return b.failSession(ctx, chatID, s, "Close", err)
			}
			b.setSession(chatID, nil)
			return b.sendText(chatID, fmt.Sprintf("✅ Saved and closed %s.", noteRef(s.NoteID(), s.Title())))
		})
	case "cancel":
		return b.handleCancel(ctx, chatID)
	case "delete":
		return b.withSession(ctx, chatID, func(s *service.Session) error {
			id := s.NoteID()
			if err := s.Delete(ctx); err != nil {
				return b.failSession(ctx, chatID, s, "Delete note", err)
			}
			b.setSession(chatID, nil)
			return b.sendText(chatID, fmt.Sprintf("🗑 Note #%d deleted.", id))
		})
	case "categories":
		return b.handleCategories(ctx, chatID)
	case "newcategory":
		return b.handleNewCategory(ctx, chatID, args)
	case "renamecategory":
		return b.handleRenameCategory(ctx, chatID, args)
	case "deletecategory":
		return b.handleDeleteCategory(ctx, chatID, args)
	case "digest":
		return b.handleDigest(ctx, chatID)
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := "there"
	if msg.From != nil && strings.TrimSpace(msg.From.FirstName) != "" {
		name = strings.TrimSpace(msg.From.FirstName)
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your notes and to-dos.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(chatID int64) error {
	return b.sendText(chatID, helpText)
}

func (b *Bot) handleNotes(ctx context.Context, chatID int64) error {
	notes, err := b.svc.Notes.List(ctx)
	if err != nil {
		return b.sendError(ctx, chatID, "List notes", err)
	}
	if len(notes) == 0 {
		return b.sendText(chatID, "No notes yet. Send /new to write one.")
	}
	return b.sendWithReplyMarkup(chatID, formatNoteList(notes, time.Now()), noteListKeyboard(notes))
}

func (b *Bot) handleNew(ctx context.Context, chatID int64, text string) error {
	if err := b.closeCurrent(ctx, chatID); err != nil {
		return err
	}
	s, err := b.svc.Notes.CreateNote(ctx, service.NewNoteInput{
		CategoryID:  b.svc.Picker.SelectDefault(),
		InitialText: text,
	})
	if err != nil {
		return b.sendError(ctx, chatID, "Create note", err)
	}
	b.setSession(chatID, s)
	return b.sendText(chatID, fmt.Sprintf("🆕 Note #%d started. Send its text, then /close to keep it or /cancel to drop it.", s.NoteID()))
}

func (b *Bot) openNote(ctx context.Context, chatID int64, id uint) error {
	if err := b.closeCurrent(ctx, chatID); err != nil {
		return err
	}
	s, err := b.svc.Notes.OpenNote(ctx, id)
	if err != nil {
		return b.sendError(ctx, chatID, "Open note", err)
	}
	b.setSession(chatID, s)
	return b.sendText(chatID, formatSession(s, time.Now()))
}

// closeCurrent saves and closes the note the chat has open, if any.
func (b *Bot) closeCurrent(ctx context.Context, chatID int64) error {
	s := b.session(chatID)
	if s == nil {
		return nil
	}
	if err := s.Close(ctx); err != nil {
		_ = b.failSession(ctx, chatID, s, "Close previous note", err)
		return err
	}
	b.setSession(chatID, nil)
	return nil
}

func (b *Bot) handlePaste(ctx context.Context, chatID int64, text string) error {
	return b.withSession(ctx, chatID, func(s *service.Session) error {
		if text == "" {
			return b.sendText(chatID, "Nothing to paste: /paste some text")
		}
		if err := s.PasteFromClipboard(ctx, text); err != nil {
			return b.failSession(ctx, chatID, s, "Paste", err)
		}
		return b.sendText(chatID, fmt.Sprintf("📋 Pasted into %s.", noteRef(s.NoteID(), s.Title())))
	})
}

func (b *Bot) handleCursor(ctx context.Context, chatID int64, args string) error {
	return b.withSession(ctx, chatID, func(s *service.Session) error {
		pos, err := strconv.Atoi(args)
		if err != nil {
			return b.sendText(chatID, "Give a character position: /cursor 0")
		}
		if err := s.SetCursor(ctx, pos); err != nil {
			return b.failSession(ctx, chatID, s, "Move cursor", err)
		}
		return b.sendText(chatID, fmt.Sprintf("Cursor at %d.", s.Cursor()))
	})
}

func (b *Bot) handleTodo(ctx context.Context, chatID int64, args string) error {
	return b.withSession(ctx, chatID, func(s *service.Session) error {
		flag, err := parseSwitch(args, !s.Note().IsTodo)
		if err != nil {
			return b.sendText(chatID, "Use /todo on or /todo off.")
		}
		if err := s.SetTodo(ctx, flag); err != nil {
			return b.failSession(ctx, chatID, s, "Change to-do", err)
		}
		if flag {
			return b.sendText(chatID, "☑️ Note is a to-do now. Use /due and /done.")
		}
		return b.sendText(chatID, "Note is no longer a to-do.")
	})
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, args string) error {
	return b.withSession(ctx, chatID, func(s *service.Session) error {
		flag, err := parseSwitch(args, true)
		if err != nil {
			return b.sendText(chatID, "Use /done or /done off.")
		}
		if err := s.SetCompleted(ctx, flag); err != nil {
			return b.failSession(ctx, chatID, s, "Change completion", err)
		}
		if flag {
			return b.sendText(chatID, "✅ Marked as done.")
		}
		return b.sendText(chatID, "↩️ Marked as not done.")
	})
}

func (b *Bot) handleDue(ctx context.Context, chatID int64, args string) error {
	return b.withSession(ctx, chatID, func(s *service.Session) error {
		if strings.EqualFold(args, "off") {
			if err := s.ClearDueDate(ctx); err != nil {
				return b.failSession(ctx, chatID, s, "Clear due date", err)
			}
			return b.sendText(chatID, "⏰ Due date removed.")
		}
		due, err := model.ParseDue(args, time.Local)
		if err != nil {
			return b.sendText(chatID, "Use <code>/due 2026-11-30</code>, <code>/due 2026-11-30 18:00</code> or <code>/due off</code>.")
		}
		if err := s.SetDueDate(ctx, due); err != nil {
			return b.failSession(ctx, chatID, s, "Set due date", err)
		}
		return b.sendText(chatID, fmt.Sprintf("⏰ Due %s.", due.Format(model.DueLayout)))
	})
}

func (b *Bot) handleNoteCategory(ctx context.Context, chatID int64, args string) error {
	return b.withSession(ctx, chatID, func(s *service.Session) error {
		if args == "" {
			categories, err := b.svc.Picker.List(ctx)
			if err != nil {
				return b.sendError(ctx, chatID, "List categories", err)
			}
			return b.sendWithReplyMarkup(chatID, "📂 Pick a category:", pickerKeyboard(categories, s.Note().CategoryID))
		}
		id, err := parseID(args)
		if err != nil {
			return b.sendText(chatID, "Give the category number: /category 2")
		}
		return b.fileNote(ctx, chatID, s, id)
	})
}

func (b *Bot) fileNote(ctx context.Context, chatID int64, s *service.Session, categoryID uint) error {
	if err := s.SetCategory(ctx, categoryID); err != nil {
		return b.failSession(ctx, chatID, s, "Change category", err)
	}
	category, err := b.svc.Picker.Select(ctx, categoryID)
	if err != nil {
		return b.sendError(ctx, chatID, "Find category", err)
	}
	return b.sendText(chatID, fmt.Sprintf("📂 Filed under %s.", escape(category.Name)))
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64) error {
	if _, ok := b.pendingDelete(chatID); ok {
		b.setPendingDelete(chatID, 0)
		return b.sendText(chatID, "↩️ Category kept.")
	}
	return b.withSession(ctx, chatID, func(s *service.Session) error {
		state := s.State()
		if err := s.Cancel(ctx); err != nil {
			return b.failSession(ctx, chatID, s, "Cancel", err)
		}
		b.setSession(chatID, nil)
		if state == service.StateInsert {
			return b.sendText(chatID, "↩️ New note discarded.")
		}
		return b.sendText(chatID, "↩️ Closed without saving the text.")
	})
}

func (b *Bot) handleDigest(ctx context.Context, chatID int64) error {
	digest, err := b.svc.Digest.Build(ctx, time.Now())
	if err != nil {
		return b.sendError(ctx, chatID, "Build digest", err)
	}
	return b.sendText(chatID, digest.HTML())
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn(ctx, "answer callback", "error", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbOpenPrefix):
		id, err := parseID(strings.TrimPrefix(data, cbOpenPrefix))
		if err != nil {
			return err
		}
		return b.openNote(ctx, chatID, id)
	case strings.HasPrefix(data, cbPickPrefix):
		id, err := parseID(strings.TrimPrefix(data, cbPickPrefix))
		if err != nil {
			return err
		}
		return b.withSession(ctx, chatID, func(s *service.Session) error {
			return b.fileNote(ctx, chatID, s, id)
		})
	case strings.HasPrefix(data, cbDelCatPrefix):
		id, err := parseID(strings.TrimPrefix(data, cbDelCatPrefix))
		if err != nil {
			return err
		}
		return b.confirmDeleteCategory(ctx, chatID, id)
	case strings.HasPrefix(data, cbKeepCatPrefix):
		b.setPendingDelete(chatID, 0)
		return b.sendText(chatID, "↩️ Category kept.")
	default:
		return fmt.Errorf("unknown callback data %q", data)
	}
}

// withSession runs fn with the chat's open note, or tells the user there is none.
func (b *Bot) withSession(ctx context.Context, chatID int64, fn func(s *service.Session) error) error {
	s := b.session(chatID)
	if s == nil {
		return b.sendText(chatID, "No note is open. Send /new or /open &lt;id&gt;.")
	}
	return fn(s)
}

// failSession reports a session error and forgets sessions that have ended.
func (b *Bot) failSession(ctx context.Context, chatID int64, s *service.Session, action string, err error) error {
	if s.Closed() {
		b.setSession(chatID, nil)
	}
	return b.sendError(ctx, chatID, action, err)
}
