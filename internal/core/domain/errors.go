package domain

import "errors"

var (
	ErrNotFound          = errors.New("inventory lot not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPersistence       = errors.New("persistence failure")
)

// IsRejection reports whether err is an expected, user-facing rejection that
// left state untouched.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidInput)
}
