package service

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrCompanyNotFound = errors.New("company not found")
	ErrSectorNotFound  = errors.New("sector not found")

	// ErrStaleModel means the persisted model does not cover the requested
	// user or was built with a different factor width. A batch refit fixes it.
	ErrStaleModel = errors.New("recommendation model is stale")

	// ErrModelConflict means every save attempt lost the compare-and-swap to
	// another writer. Retryable.
	ErrModelConflict = errors.New("recommendation model changed concurrently")
)
