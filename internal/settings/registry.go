// SPDX-License-Identifier: MIT

package settings

import (
	"errors"
	"fmt"
	"sync"
)

// node is a group or a leaf inside the registry tree. Everything except value
// is immutable after New.
type node struct {
	name string
	path string

	group    bool
	gmeta    GroupMeta
	children []*node
	index    map[string]*node

	kind  Kind
	def   any
	meta  Meta
	value any // guarded by Registry.mu
}

// Registry holds a fixed tree of groups and typed values.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	root     *node
	leaves   []*node // depth-first declaration order
	revision uint64
}

// Value is a point-in-time copy of a leaf.
type Value struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Current any    `json:"value"`
	Default any    `json:"default"`
	Meta
}

// IsDefault reports whether the current value equals the default.
func (v Value) IsDefault() bool { return same(v.Current, v.Default) }

// Text renders the current value in canonical text form.
func (v Value) Text() string { return FormatValue(v.Kind, v.Current) }

// GroupInfo describes a group.
type GroupInfo struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Children int    `json:"children"`
	GroupMeta
}

// New builds a registry from a static declaration. All declaration problems are
// reported together; the returned error matches ErrDuplicateName, ErrInvalidName
// or ErrTypeMismatch via errors.Is.
func New(decls ...Decl) (*Registry, error) {
	r := &Registry{
		root: &node{group: true, index: make(map[string]*node)},
	}
	var errs []error
	r.build(r.root, decls, &errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

func (r *Registry) build(parent *node, decls []Decl, errs *[]error) {
	for _, d := range decls {
		if !validName(d.name) {
			*errs = append(*errs, &InvalidNameError{Parent: parent.path, Name: d.name})
			continue
		}
		if _, dup := parent.index[d.name]; dup {
			*errs = append(*errs, &DuplicateNameError{Parent: parent.path, Name: d.name})
			continue
		}

		n := &node{name: d.name, path: d.name}
		if parent.path != "" {
			n.path = JoinPath(parent.path, d.name)
		}

		if d.group {
			n.group = true
			n.gmeta = d.gmeta
			n.index = make(map[string]*node, len(d.children))
			parent.index[n.name] = n
			parent.children = append(parent.children, n)
			r.build(n, d.children, errs)
			continue
		}

		def, ok := normalize(d.kind, d.def)
		if !ok {
			*errs = append(*errs, &TypeMismatchError{Path: n.path, Want: d.kind, Got: typeName(d.def)})
			continue
		}
		n.kind = d.kind
		n.def = def
		n.value = def
		n.meta = d.meta
		parent.index[n.name] = n
		parent.children = append(parent.children, n)
		r.leaves = append(r.leaves, n)
	}
}

func (r *Registry) resolve(path string) (*node, bool) {
	segs, ok := SplitPath(path)
	if !ok {
		return nil, false
	}
	n := r.root
	for _, s := range segs {
		if !n.group {
			return nil, false
		}
		next, ok := n.index[s]
		if !ok {
			return nil, false
		}
		n = next
	}
	return n, true
}

func (r *Registry) group(path string) (*node, error) {
	n, ok := r.resolve(path)
	if !ok {
		return nil, &NotFoundError{Path: CanonicalPath(path), Want: "group"}
	}
	if !n.group {
		return nil, &NotFoundError{Path: n.path, Want: "group", Reason: "path is a value"}
	}
	return n, nil
}

func (r *Registry) leaf(path string) (*node, error) {
	n, ok := r.resolve(path)
	if !ok {
		return nil, &NotFoundError{Path: CanonicalPath(path), Want: "value"}
	}
	if n.group {
		return nil, &NotFoundError{Path: n.path, Want: "value", Reason: "path is a group"}
	}
	return n, nil
}

// Group resolves a group path. The empty path is the root group.
func (r *Registry) Group(path string) (GroupInfo, error) {
	n, err := r.group(path)
	if err != nil {
		return GroupInfo{}, err
	}
	return GroupInfo{Path: n.path, Name: n.name, Children: len(n.children), GroupMeta: n.gmeta}, nil
}

// Value resolves a leaf path.
func (r *Registry) Value(path string) (Value, error) {
	n, err := r.leaf(path)
	if err != nil {
		return Value{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(n), nil
}

func snapshot(n *node) Value {
	return Value{
		Path:    n.path,
		Name:    n.name,
		Kind:    n.kind,
		Current: n.value,
		Default: n.def,
		Meta:    n.meta,
	}
}

// Set overwrites the current value of a leaf. v must have a Go type of the
// declared kind (any integer type for KindInt, float32/float64 for KindFloat,
// time.Duration for KindDuration); otherwise the value is left untouched and a
// *TypeMismatchError is returned.
func (r *Registry) Set(path string, v any) error {
	n, err := r.leaf(path)
	if err != nil {
		return err
	}
	norm, ok := normalize(n.kind, v)
	if !ok {
		return &TypeMismatchError{Path: n.path, Want: n.kind, Got: typeName(v)}
	}
	r.store(n, norm)
	return nil
}

// SetString parses text according to the declared kind and stores the result.
// Parse failures are reported as *TypeMismatchError wrapping the parse error.
func (r *Registry) SetString(path, text string) error {
	n, err := r.leaf(path)
	if err != nil {
		return err
	}
	v, err := ParseValue(n.kind, text)
	if err != nil {
		return &TypeMismatchError{Path: n.path, Want: n.kind, Got: fmt.Sprintf("%q", text), Err: err}
	}
	r.store(n, v)
	return nil
}

// Reset restores the default value of a leaf.
func (r *Registry) Reset(path string) error {
	n, err := r.leaf(path)
	if err != nil {
		return err
	}
	r.store(n, n.def)
	return nil
}

// ResetAll restores every leaf to its default.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.leaves {
		if !same(n.value, n.def) {
			n.value = n.def
			r.revision++
		}
	}
}

func (r *Registry) store(n *node, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if same(n.value, v) {
		return
	}
	n.value = v
	r.revision++
}

// Revision advances every time a value actually changes.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// Values returns a copy of every leaf in depth-first declaration order.
func (r *Registry) Values() []Value {
	return r.collect(func(*node) bool { return true })
}

// Overrides returns the leaves whose current value differs from the default.
func (r *Registry) Overrides() []Value {
	return r.collect(func(n *node) bool { return !same(n.value, n.def) })
}

// Constants returns the leaves flagged UseAsConstant.
func (r *Registry) Constants() []Value {
	return r.collect(func(n *node) bool { return n.meta.UseAsConstant })
}

func (r *Registry) collect(keep func(*node) bool) []Value {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Value, 0, len(r.leaves))
	for _, n := range r.leaves {
		if keep(n) {
			out = append(out, snapshot(n))
		}
	}
	return out
}

// Len returns the number of leaves.
func (r *Registry) Len() int { return len(r.leaves) }
