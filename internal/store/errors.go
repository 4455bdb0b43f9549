package store

import "fmt"

// StorageError reports a persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s history: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
