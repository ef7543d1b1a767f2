package vault

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnexpectedStatus  = errors.New("unexpected status")
	ErrMalformedResponse = errors.New("malformed response")
)

// StoreError is returned by every Client call that could not produce a
// result: transport failures, unexpected statuses and bodies that do not
// parse.
type StoreError struct {
	Op         string
	Path       string
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %q: status %d: %v", e.Op, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
