package database

import "errors"

var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrOwnership means the caller's user/company does not match the
	// record's owner. Fatal to the request, never retried.
	ErrOwnership = errors.New("record owned by another user or company")
	// ErrConflict means the record is not in the state the requested
	// transition expects.
	ErrConflict = errors.New("record state does not allow this transition")
	// ErrValidation means the input is malformed; nothing was persisted.
	ErrValidation = errors.New("invalid input")
)
