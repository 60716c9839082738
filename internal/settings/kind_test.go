// SPDX-License-Identifier: MIT

package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, name := range []string{"bool", "int", "float", "string", "duration", " Bool "} {
		k, err := ParseKind(name)
		require.NoError(t, err, name)
		assert.NotEqual(t, KindInvalid, k)
	}
	_, err := ParseKind("color")
	assert.Error(t, err)
}

func TestFormatParseValue(t *testing.T) {
	tests := []struct {
		kind Kind
		in   any
		text string
	}{
		{KindBool, true, "true"},
		{KindInt, int64(-42), "-42"},
		{KindFloat, 0.125, "0.125"},
		{KindString, "a b", "a b"},
		{KindDuration, 1500 * time.Millisecond, "1.5s"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.text, FormatValue(tt.kind, tt.in))
			got, err := ParseValue(tt.kind, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.in, got)
		})
	}
}

func TestKindText(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("duration")))
	assert.Equal(t, KindDuration, k)

	b, err := KindFloat.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "float", string(b))

	_, err = KindInvalid.MarshalText()
	assert.Error(t, err)
}
