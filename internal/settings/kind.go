// SPDX-License-Identifier: MIT

package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the declared type of a leaf value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDuration
)

var kindNames = map[Kind]string{
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindDuration: "duration",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// ParseKind resolves a kind name as used in declaration files ("bool", "int", ...).
func ParseKind(s string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == needle {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown setting type %q (supported: bool, int, float, string, duration)", s)
}

// MarshalText implements encoding.TextMarshaler so kinds render by name in JSON and YAML.
func (k Kind) MarshalText() ([]byte, error) {
	if k == KindInvalid {
		return nil, fmt.Errorf("cannot marshal invalid kind")
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// normalize converts v to the canonical Go representation of kind k
// (bool, int64, float64, string, time.Duration). It reports false when the
// dynamic type of v does not belong to k.
func normalize(k Kind, v any) (any, bool) {
	switch k {
	case KindBool:
		b, ok := v.(bool)
		return b, ok
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindDuration:
		d, ok := v.(time.Duration)
		return d, ok
	case KindFloat:
		switch f := v.(type) {
		case float64:
			return f, true
		case float32:
			return float64(f), true
		}
		return nil, false
	case KindInt:
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int8:
			return int64(n), true
		case int16:
			return int64(n), true
		case int32:
			return int64(n), true
		case int64:
			return n, true
		case uint:
			if uint64(n) > math.MaxInt64 {
				return nil, false
			}
			return int64(n), true
		case uint8:
			return int64(n), true
		case uint16:
			return int64(n), true
		case uint32:
			return int64(n), true
		case uint64:
			if n > math.MaxInt64 {
				return nil, false
			}
			return int64(n), true
		}
		return nil, false
	}
	return nil, false
}

// same compares canonical values. NaN equals NaN so that storing it twice is
// not a change.
func same(a, b any) bool {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok && math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
	}
	return a == b
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

// FormatValue renders a canonical value of kind k as text. ParseValue is its inverse.
func FormatValue(k Kind, v any) string {
	norm, ok := normalize(k, v)
	if !ok {
		return fmt.Sprint(v)
	}
	switch k {
	case KindBool:
		return strconv.FormatBool(norm.(bool))
	case KindInt:
		return strconv.FormatInt(norm.(int64), 10)
	case KindFloat:
		return strconv.FormatFloat(norm.(float64), 'g', -1, 64)
	case KindDuration:
		return norm.(time.Duration).String()
	default:
		return norm.(string)
	}
}

// ParseValue parses text produced by FormatValue (or typed by a human) into the
// canonical representation of kind k.
func ParseValue(k Kind, text string) (any, error) {
	switch k {
	case KindBool:
		return strconv.ParseBool(strings.TrimSpace(text))
	case KindInt:
		return strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	case KindFloat:
		return strconv.ParseFloat(strings.TrimSpace(text), 64)
	case KindDuration:
		return time.ParseDuration(strings.TrimSpace(text))
	case KindString:
		return text, nil
	}
	return nil, fmt.Errorf("cannot parse value of kind %s", k)
}
