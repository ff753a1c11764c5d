package model

import "errors"

var (
	// ErrNotFound is returned by stores when no row matches.
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

// ValidationError describes a rejected input field. It matches ErrValidation
// under errors.Is while keeping Msg as its whole text.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
