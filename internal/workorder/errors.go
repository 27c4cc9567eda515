package workorder

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindGuardViolation     Kind = "GUARD_VIOLATION"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindNotFound           Kind = "NOT_FOUND"
	KindPersistenceFailure Kind = "PERSISTENCE_FAILURE"
)

// Error is the single tagged failure type for expected domain failures. Every
// operation returning one has already rolled back; no partial state survives.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies an error; anything that is not a tagged domain error is a
// persistence-level fault, retryable at the request level.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistenceFailure
}
