package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"notepad/internal/logging"
	"notepad/internal/repository"
)

type testEnv struct {
	db         *gorm.DB
	categories *repository.CategoryRepository
	notes      *repository.NoteRepository
	cascade    *CascadeCoordinator
	categorySv *CategoryService
	noteSv     *NoteService
	picker     *CategoryPicker
	digest     *DigestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(":memory:", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logging.Nop()
	categories := repository.NewCategoryRepository(db)
	notes := repository.NewNoteRepository(db)
	cascade := NewCascadeCoordinator(db, categories, notes, log)
	return &testEnv{
		db:         db,
		categories: categories,
		notes:      notes,
		cascade:    cascade,
		categorySv: NewCategoryService(categories, cascade, log),
		noteSv:     NewNoteService(notes, log),
		picker:     NewCategoryPicker(categories),
		digest:     NewDigestService(notes, categories),
	}
}

// closeDB makes every later query fail with a driver error.
func (e *testEnv) closeDB(t *testing.T) {
	t.Helper()
	sqlDB, err := e.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}
