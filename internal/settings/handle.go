// SPDX-License-Identifier: MIT

package settings

import (
	"fmt"
	"time"
)

// Scalar lists the Go types a Handle can be bound to.
type Scalar interface {
	bool | int64 | float64 | string | time.Duration
}

func kindFor[T Scalar]() Kind {
	var zero T
	switch any(zero).(type) {
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case time.Duration:
		return KindDuration
	}
	return KindInvalid
}

// Handle is a typed accessor for one leaf. Binding checks the kind once, so
// Get and Set cannot fail afterwards.
type Handle[T Scalar] struct {
	reg  *Registry
	leaf *node
}

// Bind returns a typed handle for the leaf at path.
func Bind[T Scalar](r *Registry, path string) (Handle[T], error) {
	n, err := r.leaf(path)
	if err != nil {
		return Handle[T]{}, err
	}
	if want := kindFor[T](); n.kind != want {
		return Handle[T]{}, &TypeMismatchError{Path: n.path, Want: n.kind, Got: fmt.Sprintf("handle of %s", want)}
	}
	return Handle[T]{reg: r, leaf: n}, nil
}

// Get returns the current value.
func (h Handle[T]) Get() T {
	h.reg.mu.RLock()
	defer h.reg.mu.RUnlock()
	return h.leaf.value.(T)
}

// Set stores v.
func (h Handle[T]) Set(v T) { h.reg.store(h.leaf, v) }

// Reset restores the default.
func (h Handle[T]) Reset() { h.reg.store(h.leaf, h.leaf.def) }

// Default returns the declared default.
func (h Handle[T]) Default() T { return h.leaf.def.(T) }

// Path returns the canonical path of the bound leaf.
func (h Handle[T]) Path() string { return h.leaf.path }
