package service

import (
	"context"
	"math/rand/v2"

	"notepad/internal/logging"
	"notepad/internal/model"
	"notepad/internal/repository"
)

// Palette holds the colors new categories are painted with.
var Palette = []string{
	"#F44336", "#E91E63", "#9C27B0", "#673AB7",
	"#3F51B5", "#2196F3", "#03A9F4", "#00BCD4",
	"#009688", "#4CAF50", "#8BC34A", "#CDDC39",
	"#FFEB3B", "#FFC107", "#FF9800", "#FF5722",
}

// RandomColor picks a palette color uniformly at random.
func RandomColor() string {
	return Palette[rand.IntN(len(Palette))]
}

// CategoryService is the category request surface used by the front ends.
type CategoryService struct {
	repo    *repository.CategoryRepository
	cascade *CascadeCoordinator
	log     logging.Logger
}

func NewCategoryService(repo *repository.CategoryRepository, cascade *CascadeCoordinator, log logging.Logger) *CategoryService {
	return &CategoryService{repo: repo, cascade: cascade, log: log}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

// CreateCategory creates a category with a random palette color.
func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	category, err := s.repo.Create(ctx, name, RandomColor())
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

func (s *CategoryService) RenameCategory(ctx context.Context, id uint, name string) (*model.Category, error) {
	category, err := s.repo.Rename(ctx, id, name)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "category renamed", "category_id", id, "name", category.Name)
	return category, nil
}

// PlanDeleteCategory returns what DeleteCategory would do, for confirmation.
func (s *CategoryService) PlanDeleteCategory(ctx context.Context, id uint) (*DeletePlan, error) {
	return s.cascade.Plan(ctx, id)
}

// DeleteCategory deletes a category, moving its notes to the default category.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) (int64, error) {
	return s.cascade.DeleteCategory(ctx, id)
}
