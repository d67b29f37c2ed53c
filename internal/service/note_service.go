package service

import (
	"context"

	"notepad/internal/logging"
	"notepad/internal/model"
	"notepad/internal/repository"
)

// NewNoteInput represents data used to start a new note.
type NewNoteInput struct {
	// CategoryID files the note; zero selects the default category.
	CategoryID uint
	// InitialText prefills the body buffer, e.g. with shared text.
	InitialText string
}

// NoteService opens editing sessions and lists notes.
type NoteService struct {
	repo *repository.NoteRepository
	log  logging.Logger
}

func NewNoteService(repo *repository.NoteRepository, log logging.Logger) *NoteService {
	return &NoteService{repo: repo, log: log}
}

// CreateNote stores an empty note right away and returns an insert session
// for it, so the note survives even if the session is abandoned.
func (s *NoteService) CreateNote(ctx context.Context, input NewNoteInput) (*Session, error) {
	note, err := s.repo.Create(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	session := newSession(s.repo, s.log, StateInsert, note)
	if input.InitialText != "" {
		if err := session.SetBody(ctx, input.InitialText); err != nil {
			return nil, err
		}
	}
	session.log.Info(ctx, "note created", "category_id", note.CategoryID)
	return session, nil
}

// OpenNote loads an existing note into an edit session.
func (s *NoteService) OpenNote(ctx context.Context, id uint) (*Session, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session := newSession(s.repo, s.log, StateEdit, note)
	session.log.Info(ctx, "note opened")
	return session, nil
}

func (s *NoteService) GetNote(ctx context.Context, id uint) (*model.Note, error) {
	return s.repo.Get(ctx, id)
}

// List returns all notes, most recently modified first.
func (s *NoteService) List(ctx context.Context) ([]model.Note, error) {
	return s.repo.List(ctx)
}
