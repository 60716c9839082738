// SPDX-License-Identifier: MIT

package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound classifies lookups whose path resolves to nothing of the requested type.
	// Use errors.Is(err, ErrNotFound) instead of type assertions where the details do not matter.
	ErrNotFound = errors.New("setting not found")

	// ErrTypeMismatch classifies assignments whose value disagrees with the declared kind.
	ErrTypeMismatch = errors.New("setting type mismatch")

	// ErrDuplicateName classifies declarations with colliding sibling names.
	ErrDuplicateName = errors.New("duplicate setting name")

	// ErrInvalidName classifies declarations with empty names or names containing a path separator.
	ErrInvalidName = errors.New("invalid setting name")
)

// NotFoundError reports a path that does not resolve.
type NotFoundError struct {
	Path string
	// Want is "group" or "value".
	Want string
	// Reason is optional detail, e.g. "is a group".
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %q not found: %s", e.Want, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s %q not found", e.Want, e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TypeMismatchError reports a value whose type disagrees with the declared kind.
type TypeMismatchError struct {
	Path string
	Want Kind
	Got  string
	Err  error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("setting %q: expected %s, got %s", e.Path, e.Want, e.Got)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

func (e *TypeMismatchError) Unwrap() error { return e.Err }

// DuplicateNameError reports two siblings declared with the same name.
type DuplicateNameError struct {
	Parent string
	Name   string
}

func (e *DuplicateNameError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("duplicate name %q at root", e.Name)
	}
	return fmt.Sprintf("duplicate name %q in group %q", e.Name, e.Parent)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// InvalidNameError reports a declaration whose name cannot be addressed by a path.
type InvalidNameError struct {
	Parent string
	Name   string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q under %q: names must be non-empty and must not contain '/' or '.'", e.Name, e.Parent)
}

func (e *InvalidNameError) Is(target error) bool { return target == ErrInvalidName }
