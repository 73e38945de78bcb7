package access

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/facegate/internal/database"
)

// Service-level error taxonomy. Callers test with errors.Is; format errors
// come from the encoding package (encoding.ErrFormat).
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidInput       = errors.New("invalid input")
)

// StorageError reports a failed storage operation. No event is written when a
// scan fails with it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage unavailable: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// storageErr passes storage facts through and wraps everything else.
func storageErr(op string, err error) error {
	if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrDuplicateIdentifier) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
