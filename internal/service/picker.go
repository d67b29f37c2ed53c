package service

import (
	"context"
	"errors"

	"notepad/internal/common"
	"notepad/internal/model"
	"notepad/internal/repository"
)

// CategoryPicker offers the categories a note can be filed under. It keeps
// no state; every call reads the store again.
type CategoryPicker struct {
	repo *repository.CategoryRepository
}

func NewCategoryPicker(repo *repository.CategoryRepository) *CategoryPicker {
	return &CategoryPicker{repo: repo}
}

// List returns the selectable categories, oldest first.
func (p *CategoryPicker) List(ctx context.Context) ([]model.Category, error) {
	return p.repo.List(ctx)
}

func (p *CategoryPicker) SelectDefault() uint {
	return model.DefaultCategoryID
}

// Select resolves a preselected category. Zero or a category that no longer
// exists selects the default category.
func (p *CategoryPicker) Select(ctx context.Context, id uint) (*model.Category, error) {
	if id == 0 {
		id = p.SelectDefault()
	}
	category, err := p.repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) && id != p.SelectDefault() {
		return p.repo.GetByID(ctx, p.SelectDefault())
	}
	return category, err
}
