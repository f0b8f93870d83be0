package store

import "errors"

var (
	// ErrNotFound means a referenced project or interval does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName means a project with the same name already exists.
	ErrDuplicateName = errors.New("duplicate project name")
	// ErrInvalidInput means a required field is empty or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRange means an interval would end before it starts.
	ErrInvalidRange = errors.New("end time is before start time")
	// ErrStoreUnavailable means the database is closed or unreachable.
	ErrStoreUnavailable = errors.New("store unavailable")
)
