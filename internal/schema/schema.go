// SPDX-License-Identifier: MIT

// Package schema decodes HCL settings declaration files into settings.Decl trees.
//
// A declaration file contains "group" and "setting" blocks; groups nest and the
// source order of blocks is the display order:
//
//	group "Debug" {
//	  expand = true
//
//	  setting "EnableVSync" {
//	    type            = "bool"
//	    default         = true
//	    display_name    = "Enable VSync"
//	    help            = "Enables or disables vertical sync during Present"
//	    use_as_constant = false
//	  }
//	}
package schema

import (
	"context"
	"fmt"
	"time"

	applog "github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

const (
	blockGroup   = "group"
	blockSetting = "setting"
)

var containerBlocks = []hcl.BlockHeaderSchema{
	{Type: blockGroup, LabelNames: []string{"name"}},
	{Type: blockSetting, LabelNames: []string{"name"}},
}

var fileSchema = &hcl.BodySchema{Blocks: containerBlocks}

var groupSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "expand"},
		{Name: "display_name"},
	},
	Blocks: containerBlocks,
}

// hclSetting is the body of a 'setting' block.
type hclSetting struct {
	Type          string         `hcl:"type"`
	Default       hcl.Expression `hcl:"default"`
	DisplayName   string         `hcl:"display_name,optional"`
	Help          string         `hcl:"help,optional"`
	UseAsConstant bool           `hcl:"use_as_constant,optional"`
}

// ParseFile reads and decodes a declaration file.
func ParseFile(ctx context.Context, path string) ([]settings.Decl, error) {
	logger := applog.WithComponentFromContext(ctx, "schema")

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", path, diags)
	}

	decls, diags := decodeFile(file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", path, diags)
	}

	logger.Debug().
		Str(applog.FieldEvent, "schema.parsed").
		Str(applog.FieldPath, path).
		Int("top_level", len(decls)).
		Msg("settings declaration parsed")
	return decls, nil
}

// Parse decodes a declaration held in memory. filename is only used in diagnostics.
func Parse(src []byte, filename string) ([]settings.Decl, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	decls, diags := decodeFile(file)
	if diags.HasErrors() {
		return nil, diags
	}
	return decls, nil
}

func decodeFile(file *hcl.File) ([]settings.Decl, hcl.Diagnostics) {
	if file == nil {
		return nil, hcl.Diagnostics{{Severity: hcl.DiagError, Summary: "HCL file is nil"}}
	}
	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	decls, more := decodeBlocks(content.Blocks)
	return decls, append(diags, more...)
}

// decodeBlocks keeps the source order of mixed group and setting blocks.
func decodeBlocks(blocks hcl.Blocks) ([]settings.Decl, hcl.Diagnostics) {
	var (
		decls []settings.Decl
		diags hcl.Diagnostics
	)
	for _, b := range blocks {
		var (
			d         settings.Decl
			blockDiag hcl.Diagnostics
		)
		switch b.Type {
		case blockGroup:
			d, blockDiag = decodeGroup(b)
		case blockSetting:
			d, blockDiag = decodeSetting(b)
		}
		diags = append(diags, blockDiag...)
		if !blockDiag.HasErrors() {
			decls = append(decls, d)
		}
	}
	return decls, diags
}

func decodeGroup(b *hcl.Block) (settings.Decl, hcl.Diagnostics) {
	content, diags := b.Body.Content(groupSchema)
	if diags.HasErrors() {
		return settings.Decl{}, diags
	}

	var meta settings.GroupMeta
	if attr, ok := content.Attributes["expand"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &meta.Expand)...)
	}
	if attr, ok := content.Attributes["display_name"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &meta.DisplayName)...)
	}

	children, childDiags := decodeBlocks(content.Blocks)
	diags = append(diags, childDiags...)
	return settings.Group(b.Labels[0], meta, children...), diags
}

func decodeSetting(b *hcl.Block) (settings.Decl, hcl.Diagnostics) {
	var raw hclSetting
	diags := gohcl.DecodeBody(b.Body, nil, &raw)
	if diags.HasErrors() {
		return settings.Decl{}, diags
	}

	kind, err := settings.ParseKind(raw.Type)
	if err != nil {
		return settings.Decl{}, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid setting type",
			Detail:   err.Error(),
			Subject:  b.DefRange.Ptr(),
		})
	}

	def, defDiags := defaultValue(kind, raw.Default)
	diags = append(diags, defDiags...)
	if defDiags.HasErrors() {
		return settings.Decl{}, diags
	}

	return settings.Leaf(b.Labels[0], kind, def, settings.Meta{
		DisplayName:   raw.DisplayName,
		HelpText:      raw.Help,
		UseAsConstant: raw.UseAsConstant,
	}), diags
}

// defaultValue evaluates a constant default and converts it to the canonical Go
// representation of kind.
func defaultValue(kind settings.Kind, expr hcl.Expression) (any, hcl.Diagnostics) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() || !val.IsKnown() {
		return nil, append(diags, invalidDefault(expr, kind, fmt.Errorf("default must be a known, non-null constant")))
	}

	var (
		out any
		err error
	)
	switch kind {
	case settings.KindBool:
		var b bool
		err = fromCty(val, cty.Bool, &b)
		out = b
	case settings.KindInt:
		var n int64
		err = fromCty(val, cty.Number, &n)
		out = n
	case settings.KindFloat:
		var f float64
		err = fromCty(val, cty.Number, &f)
		out = f
	case settings.KindString:
		var s string
		err = fromCty(val, cty.String, &s)
		out = s
	case settings.KindDuration:
		var s string
		if err = fromCty(val, cty.String, &s); err == nil {
			out, err = time.ParseDuration(s)
		}
	default:
		err = fmt.Errorf("unsupported kind %s", kind)
	}
	if err != nil {
		return nil, append(diags, invalidDefault(expr, kind, err))
	}
	return out, diags
}

func fromCty(val cty.Value, want cty.Type, target any) error {
	converted, err := convert.Convert(val, want)
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(converted, target)
}

func invalidDefault(expr hcl.Expression, kind settings.Kind, err error) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid default value",
		Detail:   fmt.Sprintf("default is not a valid %s: %v", kind, err),
		Subject:  expr.Range().Ptr(),
	}
}
