package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"notepad/internal/common"
	"notepad/internal/model"
)

// CategoryRepository owns the categories table.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

// List returns all categories, oldest first.
func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("created ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, storageErr("list categories", err)
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	switch {
	case err == nil:
		return &category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	default:
		return nil, storageErr("find category", err)
	}
}

// Create inserts a category. The name is trimmed and must be unique.
func (r *CategoryRepository) Create(ctx context.Context, name, color string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is empty: %w", common.ErrInvalidArgument)
	}
	if strings.TrimSpace(color) == "" {
		return nil, fmt.Errorf("category color is empty: %w", common.ErrInvalidArgument)
	}

	category := model.Category{Name: name, Color: color}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkNameFree(tx, name, 0); err != nil {
			return err
		}
		if err := tx.Create(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("category %q: %w", name, common.ErrDuplicateName)
			}
			return storageErr("create category", err)
		}
		return nil
	})
	if err != nil {
		return nil, txErr("create category", err)
	}
	return &category, nil
}

// Rename changes the name of a category. Renaming to the current name is a
// no-op; the default category keeps its name.
func (r *CategoryRepository) Rename(ctx context.Context, id uint, newName string) (*model.Category, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("category name is empty: %w", common.ErrInvalidArgument)
	}

	var category model.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
			}
			return storageErr("find category", err)
		}
		if category.Name == newName {
			return nil
		}
		if category.IsDefault() {
			return fmt.Errorf("rename default category: %w", common.ErrForbidden)
		}
		if err := checkNameFree(tx, newName, id); err != nil {
			return err
		}
		if err := tx.Model(&category).Update("name", newName).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("category %q: %w", newName, common.ErrDuplicateName)
			}
			return storageErr("rename category", err)
		}
		category.Name = newName
		return nil
	})
	if err != nil {
		return nil, txErr("rename category", err)
	}
	return &category, nil
}

// Delete removes a category row. It assumes no notes reference the category;
// callers deleting categories with notes go through the cascade coordinator.
func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	if id == model.DefaultCategoryID {
		return fmt.Errorf("delete default category: %w", common.ErrForbidden)
	}
	res := r.db.WithContext(ctx).Delete(&model.Category{}, id)
	if res.Error != nil {
		return storageErr("delete category", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func checkNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	q := tx.Model(&model.Category{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return storageErr("check category name", err)
	}
	if count > 0 {
		return fmt.Errorf("category %q: %w", name, common.ErrDuplicateName)
	}
	return nil
}
