package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// Order ledger taxonomy. Adapters and services wrap these so callers can
	// branch with errors.Is.
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateTracking = errors.New("duplicate tracking id")
	ErrReferential       = errors.New("referenced food item does not exist")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrTransient         = errors.New("storage temporarily unavailable")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrConflict          = errors.New("conflict")

	ErrOrderNotFound    = errors.Wrap(ErrNotFound, "order")
	ErrFoodItemNotFound = errors.Wrap(ErrNotFound, "food item")
	ErrFoodItemInUse    = errors.Wrap(ErrConflict, "food item is referenced by orders")
	ErrInvalidTotal     = Invalid("invalid total amount")
	ErrDBConn           = errors.Wrap(ErrTransient, "db connection failure")
)

// validationError carries a caller facing message while matching ErrValidation.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

func Invalid(msg string) error {
	return &validationError{msg: msg}
}

func Invalidf(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// Retryable reports whether the caller may retry: transient storage failures,
// and tracking code collisions once a new code has been generated.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrDuplicateTracking)
}
