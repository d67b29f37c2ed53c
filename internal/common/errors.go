// Package common defines the error kinds shared by the stores, the services
// and the presentation layers. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// ErrNotFound is returned when a referenced note or category id is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for empty or invalid fields.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateName is returned when a category name is already taken.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrForbidden is returned for operations on the default category that
	// would break its invariants.
	ErrForbidden = errors.New("forbidden")

	// ErrSessionClosed is returned by every transition of an ended editing session.
	ErrSessionClosed = errors.New("session closed")

	// ErrStorageFailure wraps underlying I/O errors of the database.
	ErrStorageFailure = errors.New("storage failure")
)
