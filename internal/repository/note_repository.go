package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"notepad/internal/common"
	"notepad/internal/model"
)

// NoteUpdate lists the fields to change in a partial update. Nil fields are
// left untouched.
type NoteUpdate struct {
	Body         *string
	Title        *string
	IsTodo       *bool
	IsCompleted  *bool
	DueDate      *time.Time
	ClearDueDate bool
	CategoryID   *uint
}

// NoteRepository owns the notes table.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *NoteRepository) WithTx(tx *gorm.DB) *NoteRepository {
	return &NoteRepository{db: tx}
}

// Create inserts an empty note. A zero categoryID selects the default category.
func (r *NoteRepository) Create(ctx context.Context, categoryID uint) (*model.Note, error) {
	if categoryID == 0 {
		categoryID = model.DefaultCategoryID
	}

	note := model.Note{Title: model.UntitledTitle, CategoryID: categoryID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategoryExists(tx, categoryID); err != nil {
			return err
		}
		if err := tx.Create(&note).Error; err != nil {
			return storageErr("create note", err)
		}
		return nil
	})
	if err != nil {
		return nil, txErr("create note", err)
	}
	return &note, nil
}

func (r *NoteRepository) Get(ctx context.Context, id uint) (*model.Note, error) {
	return findNote(r.db.WithContext(ctx), id)
}

// Update applies a partial update and returns the stored note. The to-do
// invariant is re-applied after the fields are merged, so a note that is not
// a to-do never keeps a completion flag or a due date.
func (r *NoteRepository) Update(ctx context.Context, id uint, upd NoteUpdate) (*model.Note, error) {
	var note *model.Note
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findNote(tx, id)
		if err != nil {
			return err
		}
		if upd.CategoryID != nil && *upd.CategoryID != current.CategoryID {
			if err := checkCategoryExists(tx, *upd.CategoryID); err != nil {
				return err
			}
			current.CategoryID = *upd.CategoryID
		}
		if upd.Body != nil {
			current.Body = *upd.Body
		}
		if upd.Title != nil {
			current.Title = *upd.Title
		}
		if upd.IsTodo != nil {
			current.IsTodo = *upd.IsTodo
		}
		if upd.IsCompleted != nil {
			current.IsCompleted = *upd.IsCompleted
		}
		switch {
		case upd.ClearDueDate:
			current.DueDate = nil
		case upd.DueDate != nil:
			due := *upd.DueDate
			current.DueDate = &due
		}
		current.NormalizeTodo()

		if err := tx.Save(current).Error; err != nil {
			return storageErr("update note", err)
		}
		note = current
		return nil
	})
	if err != nil {
		return nil, txErr("update note", err)
	}
	return note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Note{}, id)
	if res.Error != nil {
		return storageErr("delete note", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// List returns all notes, most recently modified first.
func (r *NoteRepository) List(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).Order("modified DESC, id DESC").Find(&notes).Error; err != nil {
		return nil, storageErr("list notes", err)
	}
	return notes, nil
}

// ListByCategory returns the notes referencing a category.
func (r *NoteRepository) ListByCategory(ctx context.Context, categoryID uint) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("id ASC").Find(&notes).Error; err != nil {
		return nil, storageErr("list notes by category", err)
	}
	return notes, nil
}

// CountByCategory returns the number of notes referencing a category.
func (r *NoteRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Note{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return 0, storageErr("count notes by category", err)
	}
	return count, nil
}

// ListTodos returns the notes flagged as to-do items.
func (r *NoteRepository) ListTodos(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).Where("is_todo = ?", true).Order("id ASC").Find(&notes).Error; err != nil {
		return nil, storageErr("list todo notes", err)
	}
	return notes, nil
}

// Reassign moves every note of one category to another and returns the
// number of notes moved. Moving already moved notes is a no-op.
func (r *NoteRepository) Reassign(ctx context.Context, fromID, toID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Note{}).Where("category_id = ?", fromID).Update("category_id", toID)
	if res.Error != nil {
		return 0, storageErr("reassign notes", res.Error)
	}
	return res.RowsAffected, nil
}

func findNote(db *gorm.DB, id uint) (*model.Note, error) {
	var note model.Note
	err := db.First(&note, id).Error
	switch {
	case err == nil:
		return &note, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("note %d: %w", id, common.ErrNotFound)
	default:
		return nil, storageErr("find note", err)
	}
}

func checkCategoryExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&model.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return storageErr("check category", err)
	}
	if count == 0 {
		return fmt.Errorf("category %d does not exist: %w", id, common.ErrInvalidArgument)
	}
	return nil
}
