package repository

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail indicates a signup against an already registered email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAlreadyPurchased indicates the (user, course) pair already holds a purchase.
	// Raised by the storage layer's unique constraint, never by a separate read.
	ErrAlreadyPurchased = errors.New("already purchased")
)
