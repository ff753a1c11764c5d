package store

import (
	"context"

	"github.com/memonote/memo-service/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Memos() Memos
	HealthPing(ctx context.Context) error
	Close() error
}

// Memos is the row-level memo table. Every method holds a connection only for its own duration.
// Listing methods return rows ordered by created_at descending, ties broken by id descending.
type Memos interface {
	List(ctx context.Context) ([]model.MemoRow, error)
	// GetByID returns model.ErrNotFound when no row matches.
	GetByID(ctx context.Context, id string) (model.MemoRow, error)
	// Insert assigns id and sets created_at = updated_at.
	Insert(ctx context.Context, form model.MemoForm) (model.MemoRow, error)
	// Update replaces the editable fields and advances updated_at.
	// Returns model.ErrNotFound when no row matches.
	Update(ctx context.Context, id string, form model.MemoForm) (model.MemoRow, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
	ListByCategory(ctx context.Context, category string) ([]model.MemoRow, error)
	// Search matches query as a literal, case-insensitive substring of title or content.
	Search(ctx context.Context, query string) ([]model.MemoRow, error)
}
