// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	reg, err := settings.New(
		settings.Group("Debug", settings.GroupMeta{},
			settings.Bool("EnableVSync", true, settings.Meta{
				DisplayName: "Enable VSync",
				HelpText:    "Enables or disables vertical sync during Present",
			}),
			settings.Group("Timing", settings.GroupMeta{DisplayName: "Frame timing"},
				settings.Duration("Budget", 16*time.Millisecond, settings.Meta{UseAsConstant: true}),
			),
		),
	)
	require.NoError(t, err)

	want := "## Debug\n\n" +
		"| Path | Type | Default | Constant | Description |\n" +
		"|------|------|---------|----------|-------------|\n" +
		"| `Debug/EnableVSync` | bool | `true` |  | Enable VSync. Enables or disables vertical sync during Present |\n" +
		"\n" +
		"### Frame timing (Timing)\n\n" +
		"| Path | Type | Default | Constant | Description |\n" +
		"|------|------|---------|----------|-------------|\n" +
		"| `Debug/Timing/Budget` | duration | `16ms` | yes |  |\n" +
		"\n"
	assert.Equal(t, want, render(reg))
}

func TestUpdateDoc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SETTINGS.md")

	require.NoError(t, updateDoc(path, "first\n"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, docBeginMarker+"\nfirst\n"+docEndMarker+"\n", string(data))

	require.NoError(t, os.WriteFile(path, []byte("# Settings\n\n"+string(data)+"\nFooter\n"), 0o644))
	require.NoError(t, updateDoc(path, "second\n"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Settings\n\n"+docBeginMarker+"\nsecond\n"+docEndMarker+"\n\nFooter\n", string(data))

	require.NoError(t, os.WriteFile(path, []byte("no markers"), 0o644))
	assert.Error(t, updateDoc(path, "x"))
}
