package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"notepad/internal/common"
	"notepad/internal/logging"
	"notepad/internal/model"
	"notepad/internal/repository"
)

// State is the mode a session was opened in.
type State int

const (
	// StateInsert is a session for a note created by the session itself.
	StateInsert State = iota
	// StateEdit is a session for a note that already existed.
	StateEdit
)

func (s State) String() string {
	if s == StateInsert {
		return "insert"
	}
	return "edit"
}

// Session is the editing context of one open note. The body is buffered in
// memory and written by Save; metadata changes and pastes are written at
// once. A session ends on Close, Cancel or Delete, after which every method
// returns common.ErrSessionClosed.
//
// A Session is safe for concurrent use, but is meant to be owned by one caller.
type Session struct {
	mu sync.Mutex

	id    string
	notes *repository.NoteRepository
	log   logging.Logger
	state State

	noteID      uint
	body        []rune
	cursor      int
	isTodo      bool
	isCompleted bool
	dueDate     *time.Time
	categoryID  uint
	createdAt   time.Time
	modifiedAt  time.Time

	// categoryDirty is set while categoryID holds a choice not yet written.
	// Otherwise the stored category wins, so a cascade reassignment made
	// while the session is open is kept.
	categoryDirty bool

	paused bool
	closed bool
}

func newSession(notes *repository.NoteRepository, log logging.Logger, state State, note *model.Note) *Session {
	id := uuid.NewString()
	s := &Session{
		id:    id,
		notes: notes,
		log:   log.With("session", id, "note_id", note.ID),
		state: state,
	}
	s.apply(note)
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) NoteID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteID
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text returns the current body buffer, including unsaved edits.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.body)
}

// Title returns the title the current buffer would be saved with.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.DeriveTitle(string(s.body))
}

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Note returns the note as currently buffered.
func (s *Session) Note() model.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// DueStatus reports the due state of the buffered note at now.
func (s *Session) DueStatus(now time.Time) model.DueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot().DueStatus(now)
}

// SetBody replaces the body buffer and moves the cursor to its end. Nothing
// is written until the next persisting transition.
func (s *Session) SetBody(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	s.body = []rune(text)
	s.cursor = len(s.body)
	return nil
}

// SetCursor moves the paste insertion point to a rune offset in the body,
// clamped to the body bounds.
func (s *Session) SetCursor(ctx context.Context, pos int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	s.cursor = min(max(pos, 0), len(s.body))
	return nil
}

// SetTodo flags the note as a to-do item or not. Turning it off clears the
// completion flag and the due date.
func (s *Session) SetTodo(ctx context.Context, flag bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	s.isTodo = flag
	if !flag {
		s.isCompleted = false
		s.dueDate = nil
	}
	return s.persist(ctx, "todo changed")
}

func (s *Session) SetCompleted(ctx context.Context, flag bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !s.isTodo {
		return fmt.Errorf("complete note %d: not a to-do: %w", s.noteID, common.ErrInvalidArgument)
	}
	s.isCompleted = flag
	return s.persist(ctx, "completion changed")
}

func (s *Session) SetDueDate(ctx context.Context, due time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !s.isTodo {
		return fmt.Errorf("set due date of note %d: not a to-do: %w", s.noteID, common.ErrInvalidArgument)
	}
	s.dueDate = &due
	return s.persist(ctx, "due date changed")
}

func (s *Session) ClearDueDate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	s.dueDate = nil
	return s.persist(ctx, "due date cleared")
}

// SetCategory files the note under another category.
func (s *Session) SetCategory(ctx context.Context, categoryID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	if categoryID == 0 {
		categoryID = model.DefaultCategoryID
	}
	prev, prevDirty := s.categoryID, s.categoryDirty
	s.categoryID = categoryID
	s.categoryDirty = true
	if err := s.persist(ctx, "category changed"); err != nil {
		if errors.Is(err, common.ErrInvalidArgument) {
			s.categoryID, s.categoryDirty = prev, prevDirty
		}
		return err
	}
	return nil
}

// PasteFromClipboard inserts text at the cursor and writes the note. Empty
// text changes nothing.
func (s *Session) PasteFromClipboard(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	pasted := []rune(text)
	body := make([]rune, 0, len(s.body)+len(pasted))
	body = append(body, s.body[:s.cursor]...)
	body = append(body, pasted...)
	body = append(body, s.body[s.cursor:]...)
	s.body = body
	s.cursor += len(pasted)
	return s.persist(ctx, "clipboard pasted")
}

// Save writes the whole note, title included. It always writes, even when
// nothing seems to have changed.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.persist(ctx, "note saved")
}

// Close saves the note and ends the session. If the save fails the session
// stays open.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.persist(ctx, "note saved"); err != nil {
		return err
	}
	s.end(ctx, "session closed")
	return nil
}

// Cancel ends the session. A note created by this session is deleted; an
// existing note is left as last written.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedErr()
	}
	if s.state == StateInsert {
		err := s.notes.Delete(ctx, s.noteID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			s.log.Error(ctx, "discard new note", "error", err)
			return err
		}
		s.log.Info(ctx, "new note discarded")
	}
	s.end(ctx, "session cancelled")
	return nil
}

// Pause writes the note like Save and drops the loaded row. The next
// transition, or Resume, reloads it.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.persist(ctx, "note saved on pause"); err != nil {
		return err
	}
	s.paused = true
	return nil
}

// Resume reloads the note from the store and replaces the buffers with it.
// If the note was deleted meanwhile the session ends with common.ErrNotFound.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedErr()
	}
	return s.reload(ctx)
}

// Delete removes the note and ends the session.
func (s *Session) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedErr()
	}
	if err := s.notes.Delete(ctx, s.noteID); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Error(ctx, "delete note", "error", err)
			return err
		}
		s.clear()
		s.end(ctx, "note already gone")
		return err
	}
	s.clear()
	s.log.Info(ctx, "note deleted")
	s.end(ctx, "session closed")
	return nil
}

// ready rejects ended sessions and reloads a paused one.
func (s *Session) ready(ctx context.Context) error {
	if s.closed {
		return s.closedErr()
	}
	if s.paused {
		return s.reload(ctx)
	}
	return nil
}

func (s *Session) reload(ctx context.Context) error {
	note, err := s.notes.Get(ctx, s.noteID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.clear()
			s.end(ctx, "note deleted elsewhere")
		}
		return err
	}
	s.apply(note)
	s.paused = false
	s.log.Debug(ctx, "note reloaded", "category_id", note.CategoryID)
	return nil
}

// persist writes the buffered note. The category is only sent when
// SetCategory changed it. Failures are logged and returned;
// the buffers keep the unsaved edits.
func (s *Session) persist(ctx context.Context, event string) error {
	body := string(s.body)
	title := model.DeriveTitle(body)
	upd := repository.NoteUpdate{
		Body:        &body,
		Title:       &title,
		IsTodo:      &s.isTodo,
		IsCompleted: &s.isCompleted,
	}
	if s.categoryDirty {
		categoryID := s.categoryID
		upd.CategoryID = &categoryID
	}
	if s.dueDate != nil {
		due := *s.dueDate
		upd.DueDate = &due
	} else {
		upd.ClearDueDate = true
	}

	note, err := s.notes.Update(ctx, s.noteID, upd)
	if err != nil {
		s.log.Error(ctx, "persist note", "event", event, "error", err)
		return err
	}
	s.modifiedAt = note.ModifiedAt
	s.categoryID = note.CategoryID
	s.categoryDirty = false
	s.log.Info(ctx, event, "todo", note.IsTodo, "completed", note.IsCompleted)
	return nil
}

func (s *Session) apply(note *model.Note) {
	s.noteID = note.ID
	s.body = []rune(note.Body)
	s.cursor = len(s.body)
	s.isTodo = note.IsTodo
	s.isCompleted = note.IsCompleted
	s.dueDate = nil
	if note.DueDate != nil {
		due := *note.DueDate
		s.dueDate = &due
	}
	s.categoryID = note.CategoryID
	s.categoryDirty = false
	s.createdAt = note.CreatedAt
	s.modifiedAt = note.ModifiedAt
}

func (s *Session) snapshot() model.Note {
	note := model.Note{
		ID:          s.noteID,
		Title:       model.DeriveTitle(string(s.body)),
		Body:        string(s.body),
		CategoryID:  s.categoryID,
		IsTodo:      s.isTodo,
		IsCompleted: s.isCompleted,
		CreatedAt:   s.createdAt,
		ModifiedAt:  s.modifiedAt,
	}
	if s.dueDate != nil {
		due := *s.dueDate
		note.DueDate = &due
	}
	return note
}

func (s *Session) clear() {
	s.body = nil
	s.cursor = 0
}

func (s *Session) end(ctx context.Context, reason string) {
	s.closed = true
	s.paused = false
	s.log.Info(ctx, reason, "state", s.state.String())
}

func (s *Session) closedErr() error {
	return fmt.Errorf("note %d: %w", s.noteID, common.ErrSessionClosed)
}
