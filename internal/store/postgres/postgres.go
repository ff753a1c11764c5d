package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memonote/memo-service/internal/model"
	"github.com/memonote/memo-service/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS memos (
    id         UUID PRIMARY KEY,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    category   TEXT NOT NULL DEFAULT 'other',
    tags       TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS memos_created_at_idx ON memos (created_at DESC);
CREATE INDEX IF NOT EXISTS memos_category_idx ON memos (category);
`

const memoColumns = `id::text, title, content, category, tags, created_at, updated_at`

// Open creates a pgx connection pool and verifies connectivity.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate creates the memos table and its indexes when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate memos schema: %w", err)
	}
	return nil
}

// NewWithPool constructs a Postgres store backed by pool.
func NewWithPool(pool *pgxpool.Pool) store.Store { return &pgStore{pool: pool} }

type pgStore struct{ pool *pgxpool.Pool }

func (s *pgStore) Memos() store.Memos { return &memos{pool: s.pool} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}

type memos struct{ pool *pgxpool.Pool }

// withConn acquires a pooled connection for the duration of fn.
func (m *memos) withConn(ctx context.Context, fn func(c *pgxpool.Conn) error) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

func (m *memos) List(ctx context.Context) ([]model.MemoRow, error) {
	return m.query(ctx, `SELECT `+memoColumns+` FROM memos ORDER BY created_at DESC, id DESC`)
}

func (m *memos) GetByID(ctx context.Context, id string) (model.MemoRow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.MemoRow{}, model.ErrNotFound
	}
	var out model.MemoRow
	err := m.withConn(ctx, func(c *pgxpool.Conn) error {
		var err error
		out, err = scanRow(c.QueryRow(ctx, `SELECT `+memoColumns+` FROM memos WHERE id=$1`, id))
		return err
	})
	return out, err
}

func (m *memos) Insert(ctx context.Context, form model.MemoForm) (model.MemoRow, error) {
	id := uuid.New().String()
	var out model.MemoRow
	err := m.withConn(ctx, func(c *pgxpool.Conn) error {
		var err error
		out, err = scanRow(c.QueryRow(ctx, `
            INSERT INTO memos (id, title, content, category, tags, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5,now(),now())
            RETURNING `+memoColumns,
			id, form.Title, form.Content, form.Category, nonNilTags(form.Tags)))
		return err
	})
	return out, err
}

func (m *memos) Update(ctx context.Context, id string, form model.MemoForm) (model.MemoRow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.MemoRow{}, model.ErrNotFound
	}
	var out model.MemoRow
	err := m.withConn(ctx, func(c *pgxpool.Conn) error {
		var err error
		out, err = scanRow(c.QueryRow(ctx, `
            UPDATE memos
            SET title=$2, content=$3, category=$4, tags=$5,
                updated_at=GREATEST(now(), updated_at + interval '1 microsecond')
            WHERE id=$1
            RETURNING `+memoColumns,
			id, form.Title, form.Content, form.Category, nonNilTags(form.Tags)))
		return err
	})
	return out, err
}

func (m *memos) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	return m.withConn(ctx, func(c *pgxpool.Conn) error {
		_, err := c.Exec(ctx, `DELETE FROM memos WHERE id=$1`, id)
		return err
	})
}

func (m *memos) ListByCategory(ctx context.Context, category string) ([]model.MemoRow, error) {
	return m.query(ctx, `SELECT `+memoColumns+` FROM memos WHERE category=$1 ORDER BY created_at DESC, id DESC`, category)
}

func (m *memos) Search(ctx context.Context, query string) ([]model.MemoRow, error) {
	pattern := "%" + escapeLike(query) + "%"
	return m.query(ctx, `
        SELECT `+memoColumns+` FROM memos
        WHERE title ILIKE $1 ESCAPE '\' OR content ILIKE $1 ESCAPE '\'
        ORDER BY created_at DESC, id DESC`, pattern)
}

func (m *memos) query(ctx context.Context, sql string, args ...any) ([]model.MemoRow, error) {
	out := []model.MemoRow{}
	err := m.withConn(ctx, func(c *pgxpool.Conn) error {
		rows, err := c.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			r, err := scanRow(rows)
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanRow(row pgx.Row) (model.MemoRow, error) {
	var r model.MemoRow
	var created, updated time.Time
	if err := row.Scan(&r.ID, &r.Title, &r.Content, &r.Category, &r.Tags, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MemoRow{}, model.ErrNotFound
		}
		return model.MemoRow{}, err
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	r.CreatedAt = model.FormatTimestamp(created)
	r.UpdatedAt = model.FormatTimestamp(updated)
	return r, nil
}

// escapeLike makes q match literally inside a LIKE pattern using '\' as escape.
func escapeLike(q string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
