// Package memo implements the memo repository: CRUD and queries over a store.Store,
// row mapping, error wrapping and listing view revalidation.
package memo

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/memonote/memo-service/internal/metrics"
	"github.com/memonote/memo-service/internal/model"
	"github.com/memonote/memo-service/internal/revalidate"
	"github.com/memonote/memo-service/internal/store"
)

// Repository orchestrates memo use cases.
type Repository struct {
	store    store.Store
	notifier revalidate.Notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithNotifier sets the collaborator told about listing view changes.
func WithNotifier(n revalidate.Notifier) Option { return func(r *Repository) { r.notifier = n } }

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.Metrics) Option { return func(r *Repository) { r.metrics = m } }

func NewRepository(s store.Store, log zerolog.Logger, opts ...Option) *Repository {
	r := &Repository{store: s, notifier: revalidate.Nop, log: log}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ListAll returns every memo, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]model.Memo, error) {
	rows, err := r.store.Memos().List(ctx)
	if err != nil {
		return nil, r.fail(OpListAll, err)
	}
	r.metrics.RepositoryOp(string(OpListAll), nil)
	return model.RowsToMemos(rows), nil
}

// GetByID returns the memo, or nil without error when no memo has that id.
func (r *Repository) GetByID(ctx context.Context, id string) (*model.Memo, error) {
	row, err := r.store.Memos().GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		r.metrics.RepositoryOp(string(OpGetByID), nil)
		return nil, nil
	}
	if err != nil {
		return nil, r.fail(OpGetByID, err)
	}
	r.metrics.RepositoryOp(string(OpGetByID), nil)
	m := model.RowToMemo(row)
	return &m, nil
}

// Create stores a new memo; id and timestamps are assigned by the store.
func (r *Repository) Create(ctx context.Context, form model.MemoForm) (*model.Memo, error) {
	row, err := r.store.Memos().Insert(ctx, form)
	if err != nil {
		return nil, r.fail(OpCreate, err)
	}
	r.metrics.RepositoryOp(string(OpCreate), nil)
	r.notifier.Revalidate(ctx, revalidate.ListingPath)
	m := model.RowToMemo(row)
	return &m, nil
}

// Update replaces title, content, category and tags. An unknown id is an error
// for which IsNotFound holds.
func (r *Repository) Update(ctx context.Context, id string, form model.MemoForm) (*model.Memo, error) {
	row, err := r.store.Memos().Update(ctx, id, form)
	if err != nil {
		return nil, r.fail(OpUpdate, err)
	}
	r.metrics.RepositoryOp(string(OpUpdate), nil)
	r.notifier.Revalidate(ctx, revalidate.ListingPath)
	m := model.RowToMemo(row)
	return &m, nil
}

// Delete removes the memo. Deleting an unknown id succeeds.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Memos().Delete(ctx, id); err != nil {
		return r.fail(OpDelete, err)
	}
	r.metrics.RepositoryOp(string(OpDelete), nil)
	r.notifier.Revalidate(ctx, revalidate.ListingPath)
	return nil
}

// ListByCategory filters by exact category; model.CategoryAll behaves as ListAll.
func (r *Repository) ListByCategory(ctx context.Context, category string) ([]model.Memo, error) {
	if category == model.CategoryAll {
		return r.ListAll(ctx)
	}
	rows, err := r.store.Memos().ListByCategory(ctx, category)
	if err != nil {
		return nil, r.fail(OpListByCategory, err)
	}
	r.metrics.RepositoryOp(string(OpListByCategory), nil)
	return model.RowsToMemos(rows), nil
}

// Search returns memos whose title or content contains query, ignoring case.
// An empty query matches every memo.
func (r *Repository) Search(ctx context.Context, query string) ([]model.Memo, error) {
	rows, err := r.store.Memos().Search(ctx, query)
	if err != nil {
		return nil, r.fail(OpSearch, err)
	}
	r.metrics.RepositoryOp(string(OpSearch), nil)
	return model.RowsToMemos(rows), nil
}

func (r *Repository) fail(op Op, err error) error {
	r.metrics.RepositoryOp(string(op), err)
	rerr := newRepositoryError(op, err)
	r.log.Error().Stack().Err(err).Str("op", string(op)).Msg(rerr.Message)
	return rerr
}
