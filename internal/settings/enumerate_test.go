// SPDX-License-Identifier: MIT

package settings

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerateDeclarationOrder(t *testing.T) {
	r := newRegistry(t, richDecl()...)

	seq, err := r.Enumerate("Render")
	require.NoError(t, err)

	want := []Entry{
		{Name: "MSAASamples", Path: "Render/MSAASamples", Type: EntryValue, Kind: KindInt, DisplayName: "MSAA Samples", UseAsConstant: true},
		{Name: "Exposure", Path: "Render/Exposure", Type: EntryValue, Kind: KindFloat, UseAsConstant: true},
		{Name: "Shadows", Path: "Render/Shadows", Type: EntryGroup},
	}
	if diff := cmp.Diff(want, slices.Collect(seq)); diff != "" {
		t.Errorf("Enumerate(Render) mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerateIsRestartable(t *testing.T) {
	r := newRegistry(t, richDecl()...)
	seq, err := r.Enumerate("")
	require.NoError(t, err)

	first := slices.Collect(seq)
	require.NoError(t, r.Set("Title", "mutated"))
	second := slices.Collect(seq)

	require.Len(t, first, 2)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass differs (-first +second):\n%s", diff)
	}
}

func TestEnumerateStopsEarly(t *testing.T) {
	r := newRegistry(t, richDecl()...)
	seq, err := r.Enumerate("Render")
	require.NoError(t, err)

	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestEnumerateRootOfEnableVSync(t *testing.T) {
	r := newRegistry(t, debugDecl()...)
	seq, err := r.Enumerate("Debug")
	require.NoError(t, err)

	entries := slices.Collect(seq)
	require.Len(t, entries, 1)
	assert.Equal(t, "EnableVSync", entries[0].Name)
	assert.Equal(t, KindBool, entries[0].Kind)
	assert.Equal(t, "Enable VSync", entries[0].DisplayName)

	root, err := r.Enumerate("")
	require.NoError(t, err)
	groups := slices.Collect(root)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Expand)
	assert.Equal(t, EntryGroup, groups[0].Type)
}

func TestWalk(t *testing.T) {
	r := newRegistry(t, richDecl()...)

	var paths []string
	for p := range r.Walk() {
		paths = append(paths, p)
	}
	assert.Equal(t, []string{
		"Render",
		"Render/MSAASamples",
		"Render/Exposure",
		"Render/Shadows",
		"Render/Shadows/Enabled",
		"Render/Shadows/CacheTTL",
		"Title",
	}, paths)

	var first string
	for p := range r.Walk() {
		first = p
		break
	}
	assert.Equal(t, "Render", first)
}

func TestEntryJSON(t *testing.T) {
	b, err := json.Marshal(Entry{Name: "EnableVSync", Path: "Debug/EnableVSync", Type: EntryValue, Kind: KindBool})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"EnableVSync","path":"Debug/EnableVSync","type":"value","kind":"bool"}`, string(b))
}
