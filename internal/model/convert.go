package model

import (
	"fmt"
	"time"
)

// TimestampLayout is fixed width and always UTC, so string order equals time order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a TimestampLayout string.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// RowToMemo converts a stored row into a Memo.
func RowToMemo(row MemoRow) Memo {
	return Memo{
		ID:        row.ID,
		Title:     row.Title,
		Content:   row.Content,
		Category:  row.Category,
		Tags:      copyTags(row.Tags),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// RowsToMemos converts rows in order. The result is never nil.
func RowsToMemos(rows []MemoRow) []Memo {
	out := make([]Memo, 0, len(rows))
	for _, r := range rows {
		out = append(out, RowToMemo(r))
	}
	return out
}

// MemoToRow is the inverse of RowToMemo.
func MemoToRow(m Memo) MemoRow {
	return MemoRow{
		ID:        m.ID,
		Title:     m.Title,
		Content:   m.Content,
		Category:  m.Category,
		Tags:      copyTags(m.Tags),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func copyTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
