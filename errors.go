// Package browse provides sentinel errors for repository browsing operations.
// All errors can be checked using errors.Is() for programmatic handling.
package browse

import (
	"errors"
	"fmt"
)

// Common sentinel errors that can be checked with errors.Is().
// These wrap underlying go-git errors while providing a stable API for consumers.

// ErrBackend is returned when the object store fails for reasons other than a
// plain miss: I/O errors, corrupt objects, or an object referenced by another
// object that is itself missing from the store. The underlying cause stays in
// the error chain.
var ErrBackend = errors.New("object store failure")

// ErrNotFound is returned when a revision, reference, or object does not
// exist. It is an expected outcome, not a fault.
var ErrNotFound = errors.New("not found")

// ErrAmbiguousRevision is returned when a partial object identifier matches
// more than one object in the store.
var ErrAmbiguousRevision = errors.New("ambiguous revision")

// ErrInvalidRevision is returned when a revision expression or reference
// pattern is malformed according to git's revision syntax rules.
var ErrInvalidRevision = errors.New("invalid revision syntax")

// ErrNotCommit is returned when the resolved object cannot be peeled to a
// commit (for example a revision that names a tree or blob).
var ErrNotCommit = errors.New("object is not a commit")

// ErrNotTree is returned when an operation needs a tree but the named object
// is of a different kind.
var ErrNotTree = errors.New("object is not a tree")

// ErrNotBlob is returned when an operation needs a blob but the named object
// is of a different kind.
var ErrNotBlob = errors.New("object is not a blob")

// ErrPathNotFound is returned when a path does not exist within a snapshot.
// A missing intermediate object surfaces as ErrBackend instead.
var ErrPathNotFound = errors.New("path not found")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// backendError marks err as a store failure. Both ErrBackend and the
// underlying error remain matchable through errors.Is().
func backendError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrBackend, err)
}
