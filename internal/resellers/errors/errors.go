package errors

import "errors"

var (
	ErrNotFound = errors.New("reseller not found")

	ErrInvalidID = errors.New("invalid reseller ID format")

	ErrDuplicateEmail = errors.New("reseller email already registered")
)
