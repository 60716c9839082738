// SPDX-License-Identifier: MIT

package settings

import (
	"fmt"
	"iter"
)

// EntryType distinguishes groups from values during enumeration.
type EntryType uint8

const (
	EntryGroup EntryType = iota + 1
	EntryValue
)

func (t EntryType) String() string {
	switch t {
	case EntryGroup:
		return "group"
	case EntryValue:
		return "value"
	}
	return "unknown"
}

func (t EntryType) MarshalText() ([]byte, error) {
	switch t {
	case EntryGroup, EntryValue:
		return []byte(t.String()), nil
	}
	return nil, fmt.Errorf("cannot marshal entry type %d", t)
}

func (t *EntryType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "group":
		*t = EntryGroup
	case "value":
		*t = EntryValue
	default:
		return fmt.Errorf("unknown entry type %q", b)
	}
	return nil
}

// Entry describes one child of a group: its name, what it is and its metadata.
// Kind is KindInvalid for groups; Expand is always false for values.
type Entry struct {
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	Type          EntryType `json:"type"`
	Kind          Kind      `json:"kind,omitempty"`
	DisplayName   string    `json:"displayName,omitempty"`
	HelpText      string    `json:"helpText,omitempty"`
	UseAsConstant bool      `json:"useAsConstant,omitempty"`
	Expand        bool      `json:"expand,omitempty"`
}

func entryOf(n *node) Entry {
	if n.group {
		return Entry{
			Name:        n.name,
			Path:        n.path,
			Type:        EntryGroup,
			DisplayName: n.gmeta.DisplayName,
			Expand:      n.gmeta.Expand,
		}
	}
	return Entry{
		Name:          n.name,
		Path:          n.path,
		Type:          EntryValue,
		Kind:          n.kind,
		DisplayName:   n.meta.DisplayName,
		HelpText:      n.meta.HelpText,
		UseAsConstant: n.meta.UseAsConstant,
	}
}

// Enumerate returns the immediate children of a group in declaration order.
// The sequence is lazy and may be ranged over any number of times; it yields
// the same entries each time because the tree shape is fixed.
func (r *Registry) Enumerate(groupPath string) (iter.Seq[Entry], error) {
	g, err := r.group(groupPath)
	if err != nil {
		return nil, err
	}
	return func(yield func(Entry) bool) {
		for _, c := range g.children {
			if !yield(entryOf(c)) {
				return
			}
		}
	}, nil
}

// Walk yields every group and value below the root, depth first in declaration
// order, keyed by canonical path.
func (r *Registry) Walk() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		walk(r.root, yield)
	}
}

func walk(n *node, yield func(string, Entry) bool) bool {
	for _, c := range n.children {
		if !yield(c.path, entryOf(c)) {
			return false
		}
		if c.group && !walk(c, yield) {
			return false
		}
	}
	return true
}
