package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/memonote/memo-service/internal/model"
	"github.com/memonote/memo-service/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS memos (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    category   TEXT NOT NULL DEFAULT 'other',
    tags       TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS memos_created_at_idx ON memos (created_at DESC);
CREATE INDEX IF NOT EXISTS memos_category_idx ON memos (category);
`

const memoColumns = `id, title, content, category, tags, created_at, updated_at`

// Migrate creates the memos table and its indexes when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate memos schema: %w", err)
	}
	return nil
}

// Option configures the SQLite store.
type Option func(*sqliteStore)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *sqliteStore) { s.now = now }
}

// NewWithDB constructs a SQLite store backed by db. The schema must already exist (see Migrate).
func NewWithDB(db *sql.DB, opts ...Option) store.Store {
	s := &sqliteStore{db: db, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

func (s *sqliteStore) Memos() store.Memos { return &memos{db: s.db, now: s.now} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqliteStore) Close() error { return s.db.Close() }

type memos struct {
	db  *sql.DB
	now func() time.Time
}

// withConn checks out a single connection for the duration of fn.
func (m *memos) withConn(ctx context.Context, fn func(c *sql.Conn) error) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()
	return fn(conn)
}

func (m *memos) List(ctx context.Context) ([]model.MemoRow, error) {
	return m.query(ctx, `SELECT `+memoColumns+` FROM memos ORDER BY created_at DESC, id DESC`)
}

func (m *memos) GetByID(ctx context.Context, id string) (model.MemoRow, error) {
	var out model.MemoRow
	err := m.withConn(ctx, func(c *sql.Conn) error {
		var err error
		out, err = scanRow(c.QueryRowContext(ctx, `SELECT `+memoColumns+` FROM memos WHERE id=?`, id))
		return err
	})
	return out, err
}

func (m *memos) Insert(ctx context.Context, form model.MemoForm) (model.MemoRow, error) {
	tags, err := encodeTags(form.Tags)
	if err != nil {
		return model.MemoRow{}, err
	}
	id := uuid.New().String()
	ts := model.FormatTimestamp(m.now())

	var out model.MemoRow
	err = m.withConn(ctx, func(c *sql.Conn) error {
		if _, err := c.ExecContext(ctx, `
            INSERT INTO memos (id, title, content, category, tags, created_at, updated_at)
            VALUES (?,?,?,?,?,?,?)`,
			id, form.Title, form.Content, form.Category, tags, ts, ts); err != nil {
			return err
		}
		var err error
		out, err = scanRow(c.QueryRowContext(ctx, `SELECT `+memoColumns+` FROM memos WHERE id=?`, id))
		return err
	})
	return out, err
}

func (m *memos) Update(ctx context.Context, id string, form model.MemoForm) (model.MemoRow, error) {
	tags, err := encodeTags(form.Tags)
	if err != nil {
		return model.MemoRow{}, err
	}

	var out model.MemoRow
	err = m.withConn(ctx, func(c *sql.Conn) error {
		tx, err := c.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var prev string
		if err := tx.QueryRowContext(ctx, `SELECT updated_at FROM memos WHERE id=?`, id).Scan(&prev); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrNotFound
			}
			return err
		}
		next, err := m.nextUpdatedAt(prev)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
            UPDATE memos SET title=?, content=?, category=?, tags=?, updated_at=? WHERE id=?`,
			form.Title, form.Content, form.Category, tags, next, id); err != nil {
			return err
		}
		out, err = scanRow(tx.QueryRowContext(ctx, `SELECT `+memoColumns+` FROM memos WHERE id=?`, id))
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	return out, err
}

// nextUpdatedAt returns now, or one microsecond past prev when the clock has not moved on.
func (m *memos) nextUpdatedAt(prev string) (string, error) {
	prevT, err := model.ParseTimestamp(prev)
	if err != nil {
		return "", err
	}
	now := m.now().UTC().Truncate(time.Microsecond)
	if !now.After(prevT) {
		now = prevT.Add(time.Microsecond)
	}
	return model.FormatTimestamp(now), nil
}

func (m *memos) Delete(ctx context.Context, id string) error {
	return m.withConn(ctx, func(c *sql.Conn) error {
		_, err := c.ExecContext(ctx, `DELETE FROM memos WHERE id=?`, id)
		return err
	})
}

func (m *memos) ListByCategory(ctx context.Context, category string) ([]model.MemoRow, error) {
	return m.query(ctx, `SELECT `+memoColumns+` FROM memos WHERE category=? ORDER BY created_at DESC, id DESC`, category)
}

func (m *memos) Search(ctx context.Context, query string) ([]model.MemoRow, error) {
	return m.query(ctx, `
        SELECT `+memoColumns+` FROM memos
        WHERE ?1 = ''
           OR instr(`+foldFunc+`(title), `+foldFunc+`(?1)) > 0
           OR instr(`+foldFunc+`(content), `+foldFunc+`(?1)) > 0
        ORDER BY created_at DESC, id DESC`, query)
}

func (m *memos) query(ctx context.Context, q string, args ...any) ([]model.MemoRow, error) {
	out := []model.MemoRow{}
	err := m.withConn(ctx, func(c *sql.Conn) error {
		rows, err := c.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(row scanner) (model.MemoRow, error) {
	var r model.MemoRow
	var tags string
	if err := row.Scan(&r.ID, &r.Title, &r.Content, &r.Category, &tags, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MemoRow{}, model.ErrNotFound
		}
		return model.MemoRow{}, err
	}
	r.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
			return model.MemoRow{}, fmt.Errorf("decode tags of memo %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}
