package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"notepad/internal/model"
	"notepad/internal/repository"
)

// Digest groups the open to-do notes by due state.
type Digest struct {
	GeneratedAt time.Time
	Overdue     []model.Note
	Upcoming    []model.Note
	NoDueDate   []model.Note
	// Categories maps category ids to names for rendering.
	Categories map[uint]string
}

// Empty reports whether there is no open to-do at all.
func (d Digest) Empty() bool {
	return len(d.Overdue)+len(d.Upcoming)+len(d.NoDueDate) == 0
}

// DigestService builds summaries of open to-do notes. It never writes.
type DigestService struct {
	noteRepo     *repository.NoteRepository
	categoryRepo *repository.CategoryRepository
}

func NewDigestService(noteRepo *repository.NoteRepository, categoryRepo *repository.CategoryRepository) *DigestService {
	return &DigestService{noteRepo: noteRepo, categoryRepo: categoryRepo}
}

func (s *DigestService) Build(ctx context.Context, now time.Time) (Digest, error) {
	todos, err := s.noteRepo.ListTodos(ctx)
	if err != nil {
		return Digest{}, err
	}
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return Digest{}, err
	}

	d := Digest{GeneratedAt: now, Categories: make(map[uint]string, len(categories))}
	for _, cat := range categories {
		d.Categories[cat.ID] = cat.Name
	}

	for _, note := range todos {
		// Completed to-dos are left out, with or without a due date.
		if note.IsCompleted {
			continue
		}
		switch note.DueStatus(now) {
		case model.DueOverdue:
			d.Overdue = append(d.Overdue, note)
		case model.DueUpcoming:
			d.Upcoming = append(d.Upcoming, note)
		case model.DueNone:
			d.NoDueDate = append(d.NoDueDate, note)
		}
	}

	byDue := func(notes []model.Note) func(i, j int) bool {
		return func(i, j int) bool { return notes[i].DueDate.Before(*notes[j].DueDate) }
	}
	sort.SliceStable(d.Overdue, byDue(d.Overdue))
	sort.SliceStable(d.Upcoming, byDue(d.Upcoming))
	sort.SliceStable(d.NoDueDate, func(i, j int) bool {
		return d.NoDueDate[i].ModifiedAt.After(d.NoDueDate[j].ModifiedAt)
	})
	return d, nil
}

// HTML renders the digest for Telegram's HTML parse mode.
func (d Digest) HTML() string {
	return d.render(html.EscapeString, "<b>", "</b>", "<i>", "</i>")
}

// Plain renders the digest as plain text.
func (d Digest) Plain() string {
	return d.render(func(s string) string { return s }, "", "", "", "")
}

func (d Digest) render(escape func(string) string, bOpen, bClose, iOpen, iClose string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 %sTo-do digest%s\n", bOpen, bClose)
	fmt.Fprintf(&sb, "🗓 %s\n", d.GeneratedAt.Format("2006-01-02"))

	if d.Empty() {
		sb.WriteString("\n✅ nothing left to do\n")
		return strings.TrimSpace(sb.String())
	}

	section := func(icon, title string, notes []model.Note) {
		if len(notes) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n%s %s%s%s\n", icon, bOpen, title, bClose)
		for _, note := range notes {
			fmt.Fprintf(&sb, "• #%d %s", note.ID, escape(note.Title))
			if name := strings.TrimSpace(d.Categories[note.CategoryID]); name != "" {
				fmt.Fprintf(&sb, " %s(%s)%s", iOpen, escape(name), iClose)
			}
			if note.DueDate != nil {
				due := note.DueDate.In(d.GeneratedAt.Location())
				fmt.Fprintf(&sb, "\n   ⏰ %s", due.Format("2006-01-02 15:04"))
			}
			sb.WriteByte('\n')
		}
	}
	section("⚠️", "Overdue", d.Overdue)
	section("⏳", "Upcoming", d.Upcoming)
	section("📝", "No due date", d.NoDueDate)

	return strings.TrimSpace(sb.String())
}
