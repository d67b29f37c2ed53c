package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"notepad/internal/common"
	"notepad/internal/model"
	"notepad/internal/service"
)

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /new [text] — start a note\n" +
	"• /notes — list notes\n" +
	"• /open &lt;id&gt; — open a note\n" +
	"• any text — replace the text of the open note\n" +
	"• /paste &lt;text&gt; · /cursor &lt;pos&gt; — insert at the cursor\n" +
	"• /todo on|off · /done [off] · /due &lt;date&gt;|off\n" +
	"• /category [id] — file the note\n" +
	"• /show · /save · /close · /cancel · /delete\n" +
	"• /categories · /newcategory · /renamecategory · /deletecategory\n" +
	"• /digest — open to-dos"

func escape(s string) string {
	return html.EscapeString(s)
}

// userMessage turns an error into a short explanation for the chat.
func userMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return "it no longer exists."
	case errors.Is(err, common.ErrInvalidArgument):
		return "that value is not valid."
	case errors.Is(err, common.ErrDuplicateName):
		return "a category with that name already exists."
	case errors.Is(err, common.ErrForbidden):
		return "the default category cannot be changed or deleted."
	case errors.Is(err, common.ErrSessionClosed):
		return "the note is already closed."
	case errors.Is(err, common.ErrStorageFailure):
		return "storage error, recent edits may be unsaved."
	default:
		return "something went wrong."
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

// parseSwitch reads on/off style arguments; an empty argument yields def.
func parseSwitch(raw string, def bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def, nil
	case "on", "yes", "1", "true":
		return true, nil
	case "off", "no", "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid switch %q", raw)
	}
}

func noteRef(id uint, title string) string {
	return fmt.Sprintf("#%d «%s»", id, escape(title))
}

func statusIcon(note model.Note, now time.Time) string {
	if !note.IsTodo {
		return "📝"
	}
	switch note.DueStatus(now) {
	case model.DueCompleted:
		return "✅"
	case model.DueOverdue:
		return "⚠️"
	case model.DueUpcoming:
		return "⏳"
	default:
		if note.IsCompleted {
			return "✅"
		}
		return "☑️"
	}
}

func formatNoteList(notes []model.Note, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("📋 <b>Notes</b>\n")
	for _, note := range notes {
		fmt.Fprintf(&sb, "%s #%d %s\n", statusIcon(note, now), note.ID, escape(note.Title))
	}
	return strings.TrimSpace(sb.String())
}

func formatSession(s *service.Session, now time.Time) string {
	note := s.Note()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b> · #%d (%s)\n", statusIcon(note, now), escape(note.Title), note.ID, s.State())
	if note.IsTodo {
		fmt.Fprintf(&sb, "to-do: %s", note.DueStatus(now))
		if note.DueDate != nil {
			fmt.Fprintf(&sb, ", due %s", note.DueDate.In(now.Location()).Format(model.DueLayout))
		}
		sb.WriteByte('\n')
	}
	if note.Body == "" {
		sb.WriteString("\n<i>empty</i>")
	} else {
		fmt.Fprintf(&sb, "\n<pre>%s</pre>", escape(note.Body))
	}
	return sb.String()
}

func categoryLine(cat model.Category) string {
	line := fmt.Sprintf("• #%d %s <code>%s</code>", cat.ID, escape(cat.Name), escape(cat.Color))
	if cat.IsDefault() {
		line += " <i>(default)</i>"
	}
	return line + "\n"
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen-1]) + "…"
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewNote),
			tgbotapi.NewKeyboardButton(menuLabelNotes),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCategory),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func noteListKeyboard(notes []model.Note) tgbotapi.InlineKeyboardMarkup {
	const maxButtons = 20
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, note := range notes {
		if i == maxButtons {
			break
		}
		label := fmt.Sprintf("#%d · %s", note.ID, shortTitle(note.Title, 24))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", cbOpenPrefix, note.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func pickerKeyboard(categories []model.Category, selected uint) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cat := range categories {
		label := cat.Name
		if cat.ID == selected {
			label = "• " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", cbPickPrefix, cat.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmDeleteKeyboard(categoryID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("%s%d", cbDelCatPrefix, categoryID)),
		tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", fmt.Sprintf("%s%d", cbKeepCatPrefix, categoryID)),
	))
}
