package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/memonote/memo-service/internal/model"
)

const (
	MaxTitleLen = 200
	MaxTags     = 20
	MaxTagLen   = 30
)

func invalid(field, format string, args ...any) error {
	return &model.ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(field, "%s is required", field)
	}
	return nil
}

// MaxLen counts characters, not bytes.
func MaxLen(field, v string, limit int) error {
	if utf8.RuneCountInString(v) > limit {
		return invalid(field, "%s exceeds %d characters", field, limit)
	}
	return nil
}

// Title validates that a title is present and at most MaxTitleLen characters.
func Title(v string) error {
	if err := NonEmpty("title", v); err != nil {
		return err
	}
	return MaxLen("title", v, MaxTitleLen)
}

func Category(v string) error {
	if !model.Category(v).Valid() {
		return invalid("category", "category must be one of personal, work, study, idea, other")
	}
	return nil
}

func Tags(tags []string) error {
	if len(tags) > MaxTags {
		return invalid("tags", "at most %d tags are allowed", MaxTags)
	}
	for i, t := range tags {
		if err := NonEmpty(fmt.Sprintf("tags[%d]", i), t); err != nil {
			return err
		}
		if err := MaxLen(fmt.Sprintf("tags[%d]", i), t, MaxTagLen); err != nil {
			return err
		}
	}
	return nil
}

// -------- Request specific helpers ----------

// MemoForm normalizes f in place (trimmed title and tags, empty category becomes
// "other", nil tags become empty) and returns the first violated rule.
func MemoForm(f *model.MemoForm) error {
	f.Title = strings.TrimSpace(f.Title)
	if f.Category == "" {
		f.Category = string(model.CategoryOther)
	}
	tags := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		tags = append(tags, strings.TrimSpace(t))
	}
	f.Tags = tags

	if err := Title(f.Title); err != nil {
		return err
	}
	if err := Category(f.Category); err != nil {
		return err
	}
	return Tags(f.Tags)
}

// SplitTags parses a comma separated tag list as typed into a form, dropping blanks.
func SplitTags(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
