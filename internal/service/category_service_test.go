package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"notepad/internal/common"
	"notepad/internal/model"
)

func TestRandomColor_FromPalette(t *testing.T) {
	for i := 0; i < 200; i++ {
		assert.Contains(t, Palette, RandomColor())
	}
}

func TestCategoryService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	work, err := env.categorySv.CreateCategory(ctx, "  Work ")
	require.NoError(t, err)
	assert.Equal(t, "Work", work.Name)
	assert.Contains(t, Palette, work.Color)

	_, err = env.categorySv.CreateCategory(ctx, "Work")
	assert.ErrorIs(t, err, common.ErrDuplicateName)
	_, err = env.categorySv.CreateCategory(ctx, "   ")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	renamed, err := env.categorySv.RenameCategory(ctx, work.ID, "Office")
	require.NoError(t, err)
	assert.Equal(t, "Office", renamed.Name)
	_, err = env.categorySv.RenameCategory(ctx, model.DefaultCategoryID, "Misc")
	assert.ErrorIs(t, err, common.ErrForbidden)

	list, err := env.categorySv.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.DefaultCategoryID, list[0].ID)
	assert.Equal(t, "Office", list[1].Name)

	s, err := env.noteSv.CreateNote(ctx, NewNoteInput{CategoryID: work.ID})
	require.NoError(t, err)

	plan, err := env.categorySv.PlanDeleteCategory(ctx, work.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, plan.AffectedNotes)

	moved, err := env.categorySv.DeleteCategory(ctx, work.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, moved)

	stored, err := env.notes.Get(ctx, s.NoteID())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryID, stored.CategoryID)

	_, err = env.categorySv.DeleteCategory(ctx, model.DefaultCategoryID)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestCategoryService_UniqueNamesProperty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seen := map[string]bool{model.DefaultCategoryName: true}

	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,15}[A-Za-z0-9]`).Draw(rt, "name")
		_, err := env.categorySv.CreateCategory(ctx, name)
		if seen[name] {
			if err == nil {
				rt.Fatalf("duplicate %q accepted", name)
			}
			return
		}
		if err != nil {
			rt.Fatalf("create %q: %v", name, err)
		}
		seen[name] = true

		list, err := env.categorySv.ListCategories(ctx)
		if err != nil {
			rt.Fatalf("list: %v", err)
		}
		count := 0
		for _, c := range list {
			if c.Name == name {
				count++
			}
		}
		if count != 1 {
			rt.Fatalf("%q listed %d times", name, count)
		}
	})
}

func TestCategoryPicker(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.Equal(t, model.DefaultCategoryID, env.picker.SelectDefault())

	list, err := env.picker.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// no caching: a category created after the first listing shows up
	home, err := env.categories.Create(ctx, "Home", "#4CAF50")
	require.NoError(t, err)
	list, err = env.picker.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Home", list[1].Name)

	got, err := env.picker.Select(ctx, home.ID)
	require.NoError(t, err)
	assert.Equal(t, home.ID, got.ID)

	got, err = env.picker.Select(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryID, got.ID)

	_, err = env.cascade.DeleteCategory(ctx, home.ID)
	require.NoError(t, err)
	got, err = env.picker.Select(ctx, home.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryID, got.ID)
}
