// SPDX-License-Identifier: MIT

package settings

import "time"

// Meta is the display metadata attached to a leaf value.
type Meta struct {
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	HelpText    string `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	// UseAsConstant marks the value as a candidate for binding into an external
	// runtime constant block. Nothing in this package acts on it.
	UseAsConstant bool `json:"useAsConstant" yaml:"useAsConstant"`
}

// GroupMeta is the display metadata attached to a group.
type GroupMeta struct {
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	// Expand asks UIs to render the group expanded by default.
	Expand bool `json:"expand" yaml:"expand"`
}

// Decl is one node of a static settings declaration: a group or a leaf.
// Decls are plain values; they are validated by New.
type Decl struct {
	name     string
	group    bool
	gmeta    GroupMeta
	children []Decl

	kind Kind
	def  any
	meta Meta
}

// Group declares a group with the given children in display order.
func Group(name string, meta GroupMeta, children ...Decl) Decl {
	return Decl{name: name, group: true, gmeta: meta, children: children}
}

// Leaf declares a value of an explicit kind. def must be representable as kind;
// New rejects it otherwise. Prefer the typed constructors in Go code.
func Leaf(name string, kind Kind, def any, meta Meta) Decl {
	return Decl{name: name, kind: kind, def: def, meta: meta}
}

func Bool(name string, def bool, meta Meta) Decl { return Leaf(name, KindBool, def, meta) }

func Int(name string, def int64, meta Meta) Decl { return Leaf(name, KindInt, def, meta) }

func Float(name string, def float64, meta Meta) Decl { return Leaf(name, KindFloat, def, meta) }

func String(name string, def string, meta Meta) Decl { return Leaf(name, KindString, def, meta) }

func Duration(name string, def time.Duration, meta Meta) Decl {
	return Leaf(name, KindDuration, def, meta)
}

// Name returns the declared name.
func (d Decl) Name() string { return d.name }

// IsGroup reports whether d declares a group.
func (d Decl) IsGroup() bool { return d.group }

// Children returns the declared children of a group (nil for leaves).
func (d Decl) Children() []Decl { return d.children }
