package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memonote/memo-service/internal/model"
	"github.com/memonote/memo-service/internal/store"
)

// Run exercises the compliance suite against a store.Store implementation.
// makeStore must return a clean, isolated store each time it is called.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("EmptyStore", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		all, err := s.Memos().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = s.Memos().GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("InsertThenGet", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		form := model.MemoForm{Title: "A", Content: "B", Category: "idea", Tags: []string{"x", "y", "x"}}
		row, err := s.Memos().Insert(ctx, form)
		require.NoError(t, err)
		require.NotEmpty(t, row.ID)
		assert.Equal(t, row.CreatedAt, row.UpdatedAt)
		assert.Equal(t, "idea", row.Category)
		assert.Equal(t, []string{"x", "y", "x"}, row.Tags)

		got, err := s.Memos().GetByID(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, row, got)
	})

	t.Run("InsertEmptyTags", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		row, err := s.Memos().Insert(ctx, model.MemoForm{Title: "no tags", Category: "other"})
		require.NoError(t, err)
		got, err := s.Memos().GetByID(ctx, row.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
		assert.Equal(t, "", got.Content)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		var ids []string
		for _, title := range []string{"one", "two", "three"} {
			row, err := s.Memos().Insert(ctx, model.MemoForm{Title: title, Category: "work"})
			require.NoError(t, err)
			ids = append(ids, row.ID)
			time.Sleep(2 * time.Millisecond) // distinct creation times
		}

		all, err := s.Memos().List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assertNewestFirst(t, all)
		assert.Equal(t, ids[2], all[0].ID)
		assert.Equal(t, ids[0], all[2].ID)
	})

	t.Run("UpdateReplacesEditableFields", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		orig, err := s.Memos().Insert(ctx, model.MemoForm{Title: "old", Content: "old body", Category: "work", Tags: []string{"a"}})
		require.NoError(t, err)

		form := model.MemoForm{Title: "new", Content: "new body", Category: "study", Tags: []string{"b", "c"}}
		upd, err := s.Memos().Update(ctx, orig.ID, form)
		require.NoError(t, err)

		assert.Equal(t, orig.ID, upd.ID)
		assert.Equal(t, orig.CreatedAt, upd.CreatedAt)
		assert.Greater(t, upd.UpdatedAt, orig.UpdatedAt)
		assert.Equal(t, "new", upd.Title)
		assert.Equal(t, "new body", upd.Content)
		assert.Equal(t, "study", upd.Category)
		assert.Equal(t, []string{"b", "c"}, upd.Tags)

		// Immediate second update must still advance updated_at.
		again, err := s.Memos().Update(ctx, orig.ID, form)
		require.NoError(t, err)
		assert.Greater(t, again.UpdatedAt, upd.UpdatedAt)

		got, err := s.Memos().GetByID(ctx, orig.ID)
		require.NoError(t, err)
		assert.Equal(t, again, got)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := makeStore(t)
		_, err := s.Memos().Update(context.Background(), uuid.NewString(), model.MemoForm{Title: "x", Category: "other"})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("MalformedIDIsNotFound", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()
		_, err := s.Memos().GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.NoError(t, s.Memos().Delete(ctx, "not-a-uuid"))
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		row, err := s.Memos().Insert(ctx, model.MemoForm{Title: "gone", Category: "other"})
		require.NoError(t, err)
		require.NoError(t, s.Memos().Delete(ctx, row.ID))

		_, err = s.Memos().GetByID(ctx, row.ID)
		assert.True(t, errors.Is(err, model.ErrNotFound), "got %v", err)

		require.NoError(t, s.Memos().Delete(ctx, row.ID))
		require.NoError(t, s.Memos().Delete(ctx, uuid.NewString()))
	})

	t.Run("ListByCategory", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		for _, c := range []string{"work", "personal", "work", "idea"} {
			_, err := s.Memos().Insert(ctx, model.MemoForm{Title: c, Category: c})
			require.NoError(t, err)
			time.Sleep(time.Millisecond)
		}

		work, err := s.Memos().ListByCategory(ctx, "work")
		require.NoError(t, err)
		require.Len(t, work, 2)
		for _, r := range work {
			assert.Equal(t, "work", r.Category)
		}
		assertNewestFirst(t, work)

		none, err := s.Memos().ListByCategory(ctx, "study")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Search", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		forms := []model.MemoForm{
			{Title: "Grocery List", Content: "milk and eggs", Category: "personal"},
			{Title: "meeting", Content: "Quarterly GROCERY budget", Category: "work"},
			{Title: "100% done", Content: "snake_case notes", Category: "study"},
			{Title: "회의록", Content: "다음 주 일정", Category: "work"},
		}
		for _, f := range forms {
			_, err := s.Memos().Insert(ctx, f)
			require.NoError(t, err)
			time.Sleep(time.Millisecond)
		}

		hits, err := s.Memos().Search(ctx, "grocery")
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "meeting", hits[0].Title)
		assert.Equal(t, "Grocery List", hits[1].Title)

		// Substring anywhere, not prefix only.
		hits, err = s.Memos().Search(ctx, "EGG")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Grocery List", hits[0].Title)

		// Wildcard characters are literal.
		hits, err = s.Memos().Search(ctx, "%")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "100% done", hits[0].Title)

		hits, err = s.Memos().Search(ctx, "_")
		require.NoError(t, err)
		require.Len(t, hits, 1)

		hits, err = s.Memos().Search(ctx, "일정")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "회의록", hits[0].Title)

		all, err := s.Memos().Search(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, len(forms))
		assertNewestFirst(t, all)

		hits, err = s.Memos().Search(ctx, "absent")
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("HealthPing", func(t *testing.T) {
		s := makeStore(t)
		assert.NoError(t, s.HealthPing(context.Background()))
	})
}

func assertNewestFirst(t *testing.T, rows []model.MemoRow) {
	t.Helper()
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].CreatedAt, rows[i].CreatedAt, "rows %d and %d out of order", i-1, i)
	}
}
