package tree

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("no such entry")
	ErrNotDirectory  = errors.New("not a directory")
	ErrIsDirectory   = errors.New("is a directory")
	ErrInvalidOffset = errors.New("invalid offset")
)

type BuildOp string

const (
	BuildOpList          BuildOp = "list"
	BuildOpGroupMetadata BuildOp = "group_metadata"
	BuildOpGroupData     BuildOp = "group_data"
)

// PartialBuildError records a subtree that was left empty because the store
// call that should have populated it failed.
type PartialBuildError struct {
	Path string
	Op   BuildOp
	Err  error
}

func (e *PartialBuildError) Error() string {
	return fmt.Sprintf("partial build: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PartialBuildError) Unwrap() error {
	return e.Err
}

// FatalStartupError means the root itself could not be listed and there is
// no tree to mount.
type FatalStartupError struct {
	Path string
	Err  error
}

func (e *FatalStartupError) Error() string {
	return fmt.Sprintf("cannot list root %s: %v", e.Path, e.Err)
}

func (e *FatalStartupError) Unwrap() error {
	return e.Err
}
