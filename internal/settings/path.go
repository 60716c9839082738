// SPDX-License-Identifier: MIT

package settings

import "strings"

// Separator is the canonical path separator. '.' is accepted on input as well.
const Separator = "/"

// SplitPath splits a slash- or dot-separated path into segments.
// Leading and trailing separators are ignored; the empty path addresses the root
// group. It reports false for paths with empty inner segments.
func SplitPath(p string) ([]string, bool) {
	p = strings.Trim(strings.TrimSpace(p), "/.")
	if p == "" {
		return nil, true
	}
	segs := strings.FieldsFunc(p, isSeparator)
	// FieldsFunc drops empty fields; "a//b" must not resolve to "a/b".
	if strings.Count(p, "/")+strings.Count(p, ".")+1 != len(segs) {
		return nil, false
	}
	return segs, true
}

// JoinPath renders segments in canonical form.
func JoinPath(segs ...string) string {
	return strings.Join(segs, Separator)
}

// CanonicalPath rewrites p into canonical form ("Debug.EnableVSync" -> "Debug/EnableVSync").
// Malformed paths are returned trimmed but otherwise unchanged.
func CanonicalPath(p string) string {
	segs, ok := SplitPath(p)
	if !ok {
		return strings.TrimSpace(p)
	}
	return JoinPath(segs...)
}

func isSeparator(r rune) bool { return r == '/' || r == '.' }

func validName(name string) bool {
	return strings.TrimSpace(name) == name && name != "" && !strings.ContainsAny(name, "/.")
}
