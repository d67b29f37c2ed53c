package service

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"pgregory.net/rapid"

	"notepad/internal/common"
	"notepad/internal/model"
)

// failDeletes makes the first n DELETE statements fail with an I/O error.
func failDeletes(t *testing.T, db *gorm.DB, n int32) *atomic.Int32 {
	t.Helper()
	var calls atomic.Int32
	err := db.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		if calls.Add(1) <= n {
			_ = tx.AddError(errors.New("disk I/O error"))
		}
	})
	require.NoError(t, err)
	return &calls
}

func TestCascade_DefaultIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.notes.Create(ctx, 0)
	require.NoError(t, err)

	_, err = env.cascade.DeleteCategory(ctx, model.DefaultCategoryID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = env.cascade.Plan(ctx, model.DefaultCategoryID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	def, err := env.categories.GetByID(ctx, model.DefaultCategoryID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryName, def.Name)
}

func TestCascade_ReassignsNotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	work, err := env.categories.Create(ctx, "Work", "#F44336")
	require.NoError(t, err)
	var ids []uint
	for i := 0; i < 3; i++ {
		note, err := env.notes.Create(ctx, work.ID)
		require.NoError(t, err)
		ids = append(ids, note.ID)
	}

	plan, err := env.cascade.Plan(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", plan.Category.Name)
	assert.EqualValues(t, 3, plan.AffectedNotes)

	moved, err := env.cascade.DeleteCategory(ctx, work.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, moved)

	for _, id := range ids {
		note, err := env.notes.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.DefaultCategoryID, note.CategoryID)
	}
	_, err = env.categories.GetByID(ctx, work.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCascade_EmptyCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	empty, err := env.categories.Create(ctx, "Empty", "#E91E63")
	require.NoError(t, err)

	moved, err := env.cascade.DeleteCategory(ctx, empty.ID)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestCascade_SecondDeleteIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	work, err := env.categories.Create(ctx, "Work", "#F44336")
	require.NoError(t, err)
	note, err := env.notes.Create(ctx, work.ID)
	require.NoError(t, err)

	_, err = env.cascade.DeleteCategory(ctx, work.ID)
	require.NoError(t, err)

	_, err = env.cascade.DeleteCategory(ctx, work.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := env.notes.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryID, got.CategoryID)
}

func TestCascade_RetriesStorageFailureOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	work, err := env.categories.Create(ctx, "Work", "#F44336")
	require.NoError(t, err)
	note, err := env.notes.Create(ctx, work.ID)
	require.NoError(t, err)

	calls := failDeletes(t, env.db, 1)

	moved, err := env.cascade.DeleteCategory(ctx, work.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, moved)
	assert.EqualValues(t, 2, calls.Load())

	got, err := env.notes.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryID, got.CategoryID)
	_, err = env.categories.GetByID(ctx, work.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCascade_SurfacesRepeatedStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	work, err := env.categories.Create(ctx, "Work", "#F44336")
	require.NoError(t, err)
	note, err := env.notes.Create(ctx, work.ID)
	require.NoError(t, err)

	calls := failDeletes(t, env.db, 100)

	_, err = env.cascade.DeleteCategory(ctx, work.ID)
	assert.ErrorIs(t, err, common.ErrStorageFailure)
	assert.EqualValues(t, 2, calls.Load())

	// both attempts rolled back: nothing points at a missing category
	got, err := env.notes.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, work.ID, got.CategoryID)
	_, err = env.categories.GetByID(ctx, work.ID)
	assert.NoError(t, err)
}

func TestCascade_ReassignmentProperty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var seq int

	rapid.Check(t, func(rt *rapid.T) {
		seq++
		victim, err := env.categories.Create(ctx, "victim-"+strconv.Itoa(seq), "#F44336")
		if err != nil {
			rt.Fatalf("create category: %v", err)
		}
		keep, err := env.categories.Create(ctx, "keep-"+strconv.Itoa(seq), "#4CAF50")
		if err != nil {
			rt.Fatalf("create category: %v", err)
		}

		inVictim := rapid.IntRange(0, 5).Draw(rt, "inVictim")
		inKeep := rapid.IntRange(0, 3).Draw(rt, "inKeep")
		var victimNotes, keepNotes []uint
		for i := 0; i < inVictim; i++ {
			n, err := env.notes.Create(ctx, victim.ID)
			if err != nil {
				rt.Fatalf("create note: %v", err)
			}
			victimNotes = append(victimNotes, n.ID)
		}
		for i := 0; i < inKeep; i++ {
			n, err := env.notes.Create(ctx, keep.ID)
			if err != nil {
				rt.Fatalf("create note: %v", err)
			}
			keepNotes = append(keepNotes, n.ID)
		}

		moved, err := env.cascade.DeleteCategory(ctx, victim.ID)
		if err != nil {
			rt.Fatalf("delete category: %v", err)
		}
		if moved != int64(inVictim) {
			rt.Fatalf("moved %d notes, want %d", moved, inVictim)
		}
		for _, id := range victimNotes {
			n, err := env.notes.Get(ctx, id)
			if err != nil || n.CategoryID != model.DefaultCategoryID {
				rt.Fatalf("note %d not reassigned: %+v %v", id, n, err)
			}
		}
		for _, id := range keepNotes {
			n, err := env.notes.Get(ctx, id)
			if err != nil || n.CategoryID != keep.ID {
				rt.Fatalf("note %d of another category moved: %+v %v", id, n, err)
			}
		}
	})
}
