// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeFields(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	ctx := ContextWithRequestID(nil, "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, SettingPathFromContext(ctx))

	child := ContextWithSettingPath(ctx, "Debug/EnableVSync")
	assert.Equal(t, "req-1", RequestIDFromContext(child))
	assert.Equal(t, "Debug/EnableVSync", SettingPathFromContext(child))

	// The parent is untouched.
	assert.Empty(t, SettingPathFromContext(ctx))

	//nolint:staticcheck // nil context is part of the contract
	assert.Empty(t, RequestIDFromContext(nil))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithSettingPath(ctx, "Render/Exposure")

	l := WithContext(ctx, logger)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry[FieldRequestID])
	assert.Equal(t, "Render/Exposure", entry[FieldSettingPath])
}

func TestWithContextWithoutFields(t *testing.T) {
	var buf bytes.Buffer
	l := WithContext(context.Background(), zerolog.New(&buf))
	l.Info().Msg("plain")
	assert.NotContains(t, buf.String(), FieldRequestID)
}

func TestFromContextPrefersAttachedLogger(t *testing.T) {
	var buf bytes.Buffer
	attached := zerolog.New(&buf).With().Str("origin", "ctx").Logger()
	ctx := attached.WithContext(context.Background())

	l := FromContext(ctx)
	l.Info().Msg("x")

	assert.Contains(t, buf.String(), `"origin":"ctx"`)
}
