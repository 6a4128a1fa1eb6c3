package domain

import "errors"

// Domain errors.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrColumnNotFound     = errors.New("column not found")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrTitleTooLong       = errors.New("title is too long")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrEmptyID            = errors.New("id cannot be empty")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrNotPermutation     = errors.New("order is not a permutation of the scope")
	ErrInvariantViolation = errors.New("board invariant violated")
	ErrUnknownEntity      = errors.New("unknown drag entity")
	ErrAlreadyDragging    = errors.New("a drag gesture is already in progress")
	ErrTransport          = errors.New("remote store unavailable")
	ErrGatewayClosed      = errors.New("reconciliation gateway closed")
	ErrNotInitialized     = errors.New("board not initialized (run 'board init' first)")
	ErrAlreadyInitialized = errors.New("board already initialized")
	ErrConfigExists       = errors.New("config file already exists")
	ErrUnknownBackend     = errors.New("unknown store backend")
	ErrUnknownPolicy      = errors.New("unknown reconcile policy")
)

// IsNotFound reports whether err means the mutation targeted an entity the
// remote store no longer has.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrColumnNotFound)
}

// IsValidation reports whether err is a locally rejected input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrTitleTooLong) ||
		errors.Is(err, ErrEmptyID) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrNotPermutation) ||
		errors.Is(err, ErrIndexOutOfRange)
}

// IsTransport reports whether err is a network or server failure with no
// definitive outcome.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
