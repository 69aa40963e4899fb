package template

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWorkspace reports that no usable base directory was supplied.
	ErrNoWorkspace = errors.New("no workspace directory available")
	// ErrSpecNotFound reports a path specification that does not exist on disk.
	ErrSpecNotFound = errors.New("path specification not found")
	// ErrReadFailure reports a file that could not be read after resolution.
	ErrReadFailure = errors.New("file read failed")
)

const (
	resolveErrorFormat = "resolve %q (%s): %v"
	readErrorFormat    = "read %s: %v"
)

// ResolveError is returned when traversal of a path specification fails for a
// reason other than the path being absent.
type ResolveError struct {
	Spec string
	Path string
	Err  error
}

// Error returns the error string.
func (resolveError *ResolveError) Error() string {
	return fmt.Sprintf(resolveErrorFormat, resolveError.Spec, resolveError.Path, resolveError.Err)
}

// Unwrap exposes the underlying filesystem error.
func (resolveError *ResolveError) Unwrap() error {
	return resolveError.Err
}

// ReadError is returned in strict mode when a resolved file cannot be read.
// It matches both ErrReadFailure and the underlying cause with errors.Is.
type ReadError struct {
	Path string
	Err  error
}

// Error returns the error string.
func (readError *ReadError) Error() string {
	return fmt.Sprintf(readErrorFormat, readError.Path, readError.Err)
}

// Unwrap exposes ErrReadFailure and the underlying cause.
func (readError *ReadError) Unwrap() []error {
	return []error{ErrReadFailure, readError.Err}
}
