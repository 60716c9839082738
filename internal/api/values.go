// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ManuGH/appsettings/internal/settings"
)

// ValueResponse is the JSON form of one leaf. Durations are rendered as Go
// duration strings ("250ms"); non-finite floats as strings.
type ValueResponse struct {
	Path          string        `json:"path"`
	Name          string        `json:"name"`
	Kind          settings.Kind `json:"kind"`
	Value         any           `json:"value"`
	Default       any           `json:"default"`
	IsDefault     bool          `json:"isDefault"`
	DisplayName   string        `json:"displayName,omitempty"`
	HelpText      string        `json:"helpText,omitempty"`
	UseAsConstant bool          `json:"useAsConstant"`
}

func valueResponse(v settings.Value) ValueResponse {
	return ValueResponse{
		Path:          v.Path,
		Name:          v.Name,
		Kind:          v.Kind,
		Value:         jsonValue(v.Kind, v.Current),
		Default:       jsonValue(v.Kind, v.Default),
		IsDefault:     v.IsDefault(),
		DisplayName:   v.DisplayName,
		HelpText:      v.HelpText,
		UseAsConstant: v.UseAsConstant,
	}
}

func jsonValue(k settings.Kind, v any) any {
	switch x := v.(type) {
	case time.Duration:
		return x.String()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return settings.FormatValue(k, x)
		}
	}
	return v
}

// setRequest is the body of PUT /api/v1/values/*.
type setRequest struct {
	Value json.RawMessage `json:"value"`
}

// decodeInput turns the JSON value into a Go value for the declared kind.
// It does not judge the type: a JSON string for an int leaf is passed
// through as a string so the registry reports the mismatch. Durations
// travel as strings and are returned with isText set.
func decodeInput(kind settings.Kind, raw json.RawMessage) (v any, isText bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var in any
	if err := dec.Decode(&in); err != nil {
		return nil, false, fmt.Errorf("decode value: %w", err)
	}

	switch x := in.(type) {
	case json.Number:
		switch kind {
		case settings.KindInt:
			if i, err := x.Int64(); err == nil {
				return i, false, nil
			}
			f, _ := x.Float64()
			return f, false, nil
		case settings.KindFloat:
			f, err := x.Float64()
			if err != nil {
				return nil, false, fmt.Errorf("decode value: %w", err)
			}
			return f, false, nil
		default:
			f, _ := x.Float64()
			return f, false, nil
		}
	case string:
		if kind == settings.KindDuration || kind == settings.KindFloat && isNonFinite(x) {
			return x, true, nil
		}
		return x, false, nil
	default:
		// bool, nil, objects and arrays go to the registry unchanged.
		return x, false, nil
	}
}

func isNonFinite(s string) bool {
	switch s {
	case "NaN", "+Inf", "-Inf", "Inf":
		return true
	}
	return false
}
