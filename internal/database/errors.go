package database

import "errors"

// Sentinel errors for storage facts. Backends return these (optionally wrapped)
// so services can translate them; anything else is an infrastructure failure.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateIdentifier = errors.New("card id already enrolled")
	ErrUnknownDriver       = errors.New("unknown database driver")
	ErrInvalidStatus       = errors.New("invalid access status")
)
