package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"notepad/internal/common"
	"notepad/internal/logging"
	"notepad/internal/model"
	"notepad/internal/repository"
)

// DeletePlan describes what deleting a category will do. AffectedNotes is
// advisory: notes may be added or moved before the delete is committed.
type DeletePlan struct {
	Category      model.Category
	AffectedNotes int64
}

// CascadeCoordinator deletes categories while keeping every note pointed at
// an existing category. It is the only component that touches both tables.
type CascadeCoordinator struct {
	db         *gorm.DB
	categories *repository.CategoryRepository
	notes      *repository.NoteRepository
	log        logging.Logger
}

func NewCascadeCoordinator(db *gorm.DB, categories *repository.CategoryRepository, notes *repository.NoteRepository, log logging.Logger) *CascadeCoordinator {
	return &CascadeCoordinator{db: db, categories: categories, notes: notes, log: log}
}

// Plan reports the category and the number of notes that would move to the
// default category.
func (c *CascadeCoordinator) Plan(ctx context.Context, id uint) (*DeletePlan, error) {
	if id == model.DefaultCategoryID {
		return nil, fmt.Errorf("delete default category: %w", common.ErrForbidden)
	}
	category, err := c.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := c.notes.CountByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DeletePlan{Category: *category, AffectedNotes: count}, nil
}

// DeleteCategory moves the notes of a category to the default category and
// removes the category row, in one transaction. It returns the number of
// reassigned notes.
//
// A storage failure is retried once from scratch. If the retry finds the
// category already gone, the first attempt committed and the call succeeds.
func (c *CascadeCoordinator) DeleteCategory(ctx context.Context, id uint) (int64, error) {
	if id == model.DefaultCategoryID {
		return 0, fmt.Errorf("delete default category: %w", common.ErrForbidden)
	}

	moved, err := c.deleteOnce(ctx, id)
	if err == nil {
		c.log.Info(ctx, "category deleted", "category_id", id, "reassigned", moved)
		return moved, nil
	}
	if !errors.Is(err, common.ErrStorageFailure) {
		return 0, err
	}

	c.log.Warn(ctx, "category delete failed, retrying", "category_id", id, "error", err)
	moved, err = c.deleteOnce(ctx, id)
	switch {
	case err == nil:
		c.log.Info(ctx, "category deleted", "category_id", id, "reassigned", moved, "retried", true)
		return moved, nil
	case errors.Is(err, common.ErrNotFound):
		c.log.Info(ctx, "category already deleted", "category_id", id)
		return 0, nil
	default:
		c.log.Error(ctx, "category delete failed", "category_id", id, "error", err)
		return 0, err
	}
}

func (c *CascadeCoordinator) deleteOnce(ctx context.Context, id uint) (int64, error) {
	var moved int64
	err := repository.InTx(ctx, c.db, "delete category", func(tx *gorm.DB) error {
		categories := c.categories.WithTx(tx)
		notes := c.notes.WithTx(tx)

		if _, err := categories.GetByID(ctx, id); err != nil {
			return err
		}
		dependents, err := notes.ListByCategory(ctx, id)
		if err != nil {
			return err
		}
		if len(dependents) > 0 {
			n, err := notes.Reassign(ctx, id, model.DefaultCategoryID)
			if err != nil {
				return err
			}
			moved = n
		}
		return categories.Delete(ctx, id)
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}
