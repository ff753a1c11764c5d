package memo

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memonote/memo-service/internal/metrics"
	"github.com/memonote/memo-service/internal/model"
	"github.com/memonote/memo-service/internal/revalidate"
	"github.com/memonote/memo-service/internal/store"
	"github.com/memonote/memo-service/internal/store/sqlite"
)

type recordingNotifier struct{ paths []string }

func (n *recordingNotifier) Revalidate(_ context.Context, path string) { n.paths = append(n.paths, path) }

func newTestRepo(t *testing.T) (*Repository, *recordingNotifier) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "memos.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(context.Background(), db))
	s := sqlite.NewWithDB(db)
	t.Cleanup(func() { _ = s.Close() })

	n := &recordingNotifier{}
	return NewRepository(s, zerolog.Nop(), WithNotifier(n), WithMetrics(metrics.New())), n
}

func seed(t *testing.T, r *Repository, forms ...model.MemoForm) []*model.Memo {
	t.Helper()
	var out []*model.Memo
	for _, f := range forms {
		m, err := r.Create(context.Background(), f)
		require.NoError(t, err)
		out = append(out, m)
		time.Sleep(2 * time.Millisecond)
	}
	return out
}

func TestCreate_EndToEnd(t *testing.T) {
	r, n := newTestRepo(t)

	m, err := r.Create(context.Background(), model.MemoForm{Title: "A", Content: "B", Category: "idea", Tags: []string{"x"}})
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, m.CreatedAt, m.UpdatedAt)
	assert.Equal(t, "idea", m.Category)
	assert.Equal(t, []string{"x"}, m.Tags)
	assert.Equal(t, []string{revalidate.ListingPath}, n.paths)
}

func TestCreateThenGet(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	created := seed(t, r, model.MemoForm{Title: "회의", Content: "안건 정리", Category: "work", Tags: []string{"q3", "team", "q3"}})[0]

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *created, *got)
}

func TestGetByID_NotFoundIsNil(t *testing.T) {
	r, _ := newTestRepo(t)

	got, err := r.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestListAll_NewestFirst(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	empty, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	seed(t, r,
		model.MemoForm{Title: "1", Category: "work"},
		model.MemoForm{Title: "2", Category: "idea"},
		model.MemoForm{Title: "3", Category: "work"},
	)
	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].CreatedAt, all[i].CreatedAt)
	}
	assert.Equal(t, "3", all[0].Title)
}

func TestUpdate_ReplacesEditableFields(t *testing.T) {
	r, n := newTestRepo(t)
	ctx := context.Background()

	orig := seed(t, r, model.MemoForm{Title: "old", Content: "c", Category: "work", Tags: []string{"a"}})[0]
	form := model.MemoForm{Title: "new", Content: "c2", Category: "study", Tags: []string{"b"}}

	upd, err := r.Update(ctx, orig.ID, form)
	require.NoError(t, err)
	assert.Equal(t, orig.ID, upd.ID)
	assert.Equal(t, orig.CreatedAt, upd.CreatedAt)
	assert.Greater(t, upd.UpdatedAt, orig.UpdatedAt)
	assert.Equal(t, form.Title, upd.Title)
	assert.Equal(t, form.Content, upd.Content)
	assert.Equal(t, form.Category, upd.Category)
	assert.Equal(t, form.Tags, upd.Tags)
	assert.Len(t, n.paths, 2)
}

func TestUpdate_MissingIsNotFoundError(t *testing.T) {
	r, n := newTestRepo(t)

	_, err := r.Update(context.Background(), "00000000-0000-0000-0000-000000000000", model.MemoForm{Title: "x", Category: "work"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsRepositoryError(err))
	assert.Contains(t, err.Error(), "메모를 수정하는데 실패했습니다")
	assert.Empty(t, n.paths, "failed writes do not revalidate")
}

func TestDelete_ThenGetIsNil(t *testing.T) {
	r, n := newTestRepo(t)
	ctx := context.Background()

	m := seed(t, r, model.MemoForm{Title: "bye", Category: "other"})[0]
	require.NoError(t, r.Delete(ctx, m.ID))

	got, err := r.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, r.Delete(ctx, m.ID), "deleting twice succeeds")
	assert.Len(t, n.paths, 3)
}

func TestListByCategory(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	seed(t, r,
		model.MemoForm{Title: "w1", Category: "work"},
		model.MemoForm{Title: "p1", Category: "personal"},
		model.MemoForm{Title: "w2", Category: "work"},
	)

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	viaAll, err := r.ListByCategory(ctx, model.CategoryAll)
	require.NoError(t, err)
	assert.Equal(t, all, viaAll)

	work, err := r.ListByCategory(ctx, "work")
	require.NoError(t, err)
	require.Len(t, work, 2)
	for _, m := range work {
		assert.Equal(t, "work", m.Category)
	}
	assert.Equal(t, "w2", work[0].Title)
}

func TestSearch(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	seed(t, r,
		model.MemoForm{Title: "Reading list", Content: "Go in Action", Category: "study"},
		model.MemoForm{Title: "groceries", Content: "eggs", Category: "personal"},
		model.MemoForm{Title: "ideas", Content: "a GOlang side project", Category: "idea"},
	)

	everything, err := r.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, everything, 3)

	hits, err := r.Search(ctx, "go")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, m := range hits {
		assert.True(t,
			strings.Contains(strings.ToLower(m.Title), "go") || strings.Contains(strings.ToLower(m.Content), "go"),
			m.Title)
	}
	assert.Equal(t, "ideas", hits[0].Title)
}

// failingStore returns the same error from every operation.
type failingStore struct{ err error }

func (f failingStore) Memos() store.Memos                 { return failingMemos(f) }
func (f failingStore) HealthPing(context.Context) error { return f.err }
func (f failingStore) Close() error                       { return nil }

type failingMemos struct{ err error }

func (f failingMemos) List(context.Context) ([]model.MemoRow, error) { return nil, f.err }
func (f failingMemos) GetByID(context.Context, string) (model.MemoRow, error) {
	return model.MemoRow{}, f.err
}
func (f failingMemos) Insert(context.Context, model.MemoForm) (model.MemoRow, error) {
	return model.MemoRow{}, f.err
}
func (f failingMemos) Update(context.Context, string, model.MemoForm) (model.MemoRow, error) {
	return model.MemoRow{}, f.err
}
func (f failingMemos) Delete(context.Context, string) error { return f.err }
func (f failingMemos) ListByCategory(context.Context, string) ([]model.MemoRow, error) {
	return nil, f.err
}
func (f failingMemos) Search(context.Context, string) ([]model.MemoRow, error) { return nil, f.err }

func TestStoreFailures_AreWrappedLoggedAndReturned(t *testing.T) {
	cause := errors.New("connection reset by peer")
	var buf bytes.Buffer
	n := &recordingNotifier{}
	r := NewRepository(failingStore{err: cause}, zerolog.New(&buf), WithNotifier(n))
	ctx := context.Background()

	cases := []struct {
		op   Op
		call func() error
	}{
		{OpListAll, func() error { _, err := r.ListAll(ctx); return err }},
		{OpGetByID, func() error { _, err := r.GetByID(ctx, "x"); return err }},
		{OpCreate, func() error { _, err := r.Create(ctx, model.MemoForm{Title: "t"}); return err }},
		{OpUpdate, func() error { _, err := r.Update(ctx, "x", model.MemoForm{Title: "t"}); return err }},
		{OpDelete, func() error { return r.Delete(ctx, "x") }},
		{OpListByCategory, func() error { _, err := r.ListByCategory(ctx, "work"); return err }},
		{OpListAll, func() error { _, err := r.ListByCategory(ctx, model.CategoryAll); return err }},
		{OpSearch, func() error { _, err := r.Search(ctx, "q"); return err }},
	}
	for _, tc := range cases {
		t.Run(string(tc.op), func(t *testing.T) {
			buf.Reset()
			err := tc.call()
			require.Error(t, err)

			var re *RepositoryError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tc.op, re.Op)
			assert.Equal(t, messages[tc.op], re.Message)
			assert.ErrorIs(t, err, cause)
			assert.Contains(t, err.Error(), cause.Error())
			assert.False(t, IsNotFound(err))
			assert.Contains(t, buf.String(), string(tc.op))
		})
	}
	assert.Empty(t, n.paths)
}
