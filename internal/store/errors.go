package store

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("store: record not found")

	// ErrCartConflict indicates the cart changed under a concurrent
	// checkout: the expected items were no longer there to consume.
	ErrCartConflict = errors.New("store: cart modified concurrently")
)
