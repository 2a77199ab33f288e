package apperrors

import "errors"

// Category errors. Every domain error wraps exactly one of them so the
// boundary can choose a status code with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// Error is a user-facing message tagged with its category.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Validation(msg string) *Error { return New(ErrValidation, msg) }

func NotFound(msg string) *Error { return New(ErrNotFound, msg) }

func Conflict(msg string) *Error { return New(ErrConflict, msg) }

func Forbidden(msg string) *Error { return New(ErrForbidden, msg) }

// Message returns the user-facing text of err if it carries a category,
// and false for internal errors whose text must not leak.
func Message(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg, true
	}
	return "", false
}
