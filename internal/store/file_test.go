// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreWritesNestedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	st, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, st.Save(context.Background(), []Record{
		{Path: "Debug/EnableVSync", Kind: settings.KindBool, Value: "false"},
		{Path: "Render/Shadows/CacheTTL", Kind: settings.KindDuration, Value: "250ms"},
		{Path: "Render/MSAASamples", Kind: settings.KindInt, Value: "8"},
		{Path: "Title", Kind: settings.KindString, Value: "true"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	header := "# " + fileHeader + "\n"
	require.True(t, strings.HasPrefix(string(data), header), string(data))

	want := "Debug:\n" +
		"  EnableVSync: false\n" +
		"Render:\n" +
		"  Shadows:\n" +
		"    CacheTTL: 250ms\n" +
		"  MSAASamples: 8\n" +
		"Title: \"true\"\n"
	assert.Equal(t, want, strings.TrimLeft(strings.TrimPrefix(string(data), header), "\n"))
}

func TestFileStoreReadsHandEditedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
# edited by hand
Debug:
  EnableVSync: no
Title:
Render:
  Exposure: 1.5
`), 0o644))

	st, err := NewFileStore(path)
	require.NoError(t, err)
	records, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Path: "Debug/EnableVSync", Value: "no"},
		{Path: "Title", Value: ""},
		{Path: "Render/Exposure", Value: "1.5"},
	}, records)
}

func TestFileStoreRejectsLists(t *testing.T) {
	tests := []struct {
		name, doc, want string
	}{
		{"nested list", "Debug:\n  - a\n", "line 2: Debug: lists and aliases are not supported"},
		{"top level list", "- a\n- b\n", "line 1: expected a mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))

			st, err := NewFileStore(path)
			require.NoError(t, err)
			_, err = st.Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFileStorePingCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state", "nested")
	st, err := NewFileStore(filepath.Join(dir, "settings.yaml"))
	require.NoError(t, err)

	require.NoError(t, st.Ping(context.Background()))
	assert.DirExists(t, dir)

	records, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStorePingRejectsFileAsDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	st, err := NewFileStore(filepath.Join(blocker, "settings.yaml"))
	require.NoError(t, err)
	assert.Error(t, st.Ping(context.Background()))
}

func TestFileStoreEmptySaveRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	st, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, st.Save(context.Background(), nil))
	records, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStoreLoadIfChanged(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	st, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, st.Save(ctx, []Record{{Path: "Title", Kind: settings.KindString, Value: "a"}}))
	_, changed, err := st.LoadIfChanged(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "own write must not count as a change")

	require.NoError(t, os.WriteFile(path, []byte("Title: b\n"), 0o644))
	records, changed, err := st.LoadIfChanged(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []Record{{Path: "Title", Value: "b"}}, records)

	_, changed, err = st.LoadIfChanged(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestEncodeRejectsConflictingPaths(t *testing.T) {
	_, err := encodeDocument([]Record{
		{Path: "A", Value: "1"},
		{Path: "A/B", Value: "2"},
	})
	assert.Error(t, err)
}
