// SPDX-License-Identifier: MIT

// configgen renders the settings reference document from a declaration.
//
// Usage:
//
//	configgen [-schema app.hcl] [-o docs/SETTINGS.md]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/appsettings/internal/appsettings"
	"github.com/ManuGH/appsettings/internal/schema"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/google/renameio/v2"
)

const (
	docBeginMarker = "<!-- BEGIN GENERATED SETTINGS -->"
	docEndMarker   = "<!-- END GENERATED SETTINGS -->"
)

func main() {
	schemaFile := flag.String("schema", "", "HCL settings declaration (default: built-in)")
	out := flag.String("o", "", "output file (default: stdout)")
	flag.Parse()

	var decls []settings.Decl
	if *schemaFile != "" {
		var err error
		if decls, err = schema.ParseFile(context.Background(), *schemaFile); err != nil {
			fail(err)
		}
	}
	s, err := appsettings.New(decls...)
	if err != nil {
		fail(err)
	}

	doc := render(s.Registry)
	if *out == "" {
		fmt.Print(doc)
		return
	}
	if err := updateDoc(*out, doc); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "configgen: %v\n", err)
	os.Exit(1)
}

// updateDoc replaces the generated block of an existing document, or writes
// a new document holding only that block.
func updateDoc(path, generated string) error {
	block := docBeginMarker + "\n" + generated + docEndMarker + "\n"

	existing, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		existing = nil
	case err != nil:
		return fmt.Errorf("read %s: %w", path, err)
	}

	content := block
	if existing != nil {
		s := string(existing)
		start := strings.Index(s, docBeginMarker)
		end := strings.Index(s, docEndMarker)
		if start < 0 || end < start {
			return fmt.Errorf("%s: generated markers not found", path)
		}
		content = s[:start] + block + strings.TrimPrefix(s[end+len(docEndMarker):], "\n")
	}
	return renameio.WriteFile(path, []byte(content), 0o644)
}

// render lists every group as a heading and every value as a table row, in
// declaration order.
func render(reg *settings.Registry) string {
	var b strings.Builder
	open := false
	closeTable := func() {
		if open {
			b.WriteString("\n")
			open = false
		}
	}

	for path, e := range reg.Walk() {
		switch e.Type {
		case settings.EntryGroup:
			closeTable()
			depth := strings.Count(path, "/") + 2
			title := e.Name
			if e.DisplayName != "" {
				title = fmt.Sprintf("%s (%s)", e.DisplayName, e.Name)
			}
			fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", depth), title)
		case settings.EntryValue:
			if !open {
				b.WriteString("| Path | Type | Default | Constant | Description |\n")
				b.WriteString("|------|------|---------|----------|-------------|\n")
				open = true
			}
			v, err := reg.Value(path)
			if err != nil {
				continue
			}
			desc := e.HelpText
			if e.DisplayName != "" {
				desc = strings.TrimSpace(e.DisplayName + ". " + desc)
			}
			constant := ""
			if e.UseAsConstant {
				constant = "yes"
			}
			fmt.Fprintf(&b, "| `%s` | %s | `%s` | %s | %s |\n",
				path, e.Kind, settings.FormatValue(v.Kind, v.Default), constant, escapeCell(desc))
		}
	}
	closeTable()
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
