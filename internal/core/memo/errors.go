package memo

import (
	"errors"
	"fmt"

	"github.com/memonote/memo-service/internal/model"
)

// Op names a repository operation.
type Op string

const (
	OpListAll        Op = "list_all"
	OpGetByID        Op = "get_by_id"
	OpCreate         Op = "create"
	OpUpdate         Op = "update"
	OpDelete         Op = "delete"
	OpListByCategory Op = "list_by_category"
	OpSearch         Op = "search"
)

// messages are the user-facing descriptions of a failed operation.
var messages = map[Op]string{
	OpListAll:        "메모를 불러오는데 실패했습니다",
	OpGetByID:        "메모를 불러오는데 실패했습니다",
	OpCreate:         "메모를 생성하는데 실패했습니다",
	OpUpdate:         "메모를 수정하는데 실패했습니다",
	OpDelete:         "메모를 삭제하는데 실패했습니다",
	OpListByCategory: "메모를 불러오는데 실패했습니다",
	OpSearch:         "메모를 검색하는데 실패했습니다",
}

// RepositoryError wraps a store failure with a localized message naming the failed operation.
type RepositoryError struct {
	Op      Op
	Message string
	Err     error
}

func newRepositoryError(op Op, err error) *RepositoryError {
	return &RepositoryError{Op: op, Message: messages[op], Err: err}
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// IsRepositoryError checks if err is, or wraps, a RepositoryError.
func IsRepositoryError(err error) bool {
	var re *RepositoryError
	return errors.As(err, &re)
}

// IsNotFound reports whether err stems from a missing memo (Update on an unknown id).
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
