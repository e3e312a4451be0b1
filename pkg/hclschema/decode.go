// Package hclschema reads schema layers authored in HCL:
//
//	sublayers = ["core.hcl"]
//
//	class "GLOBAL" {
//	  specifier   = "over"
//	  custom_data = { libraryName = "geom", libraryPath = "example.com/geom" }
//	}
//
//	class "Mesh" {
//	  type_name = "Mesh"
//	  inherits  = ["/Typed"]
//	  attribute "faceCount" {
//	    type    = "int"
//	    default = 0
//	  }
//	  relationship "material" {}
//	}
package hclschema

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

var layerSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "comment"},
		{Name: "doc"},
		{Name: "sublayers"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "class", LabelNames: []string{"name"}},
	},
}

var classSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "specifier"},
		{Name: "type_name"},
		{Name: "inherits"},
		{Name: "doc"},
		{Name: "custom_data"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "attribute", LabelNames: []string{"name"}},
		{Type: "relationship", LabelNames: []string{"name"}},
	},
}

var propertySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
		{Name: "variability"},
		{Name: "default"},
		{Name: "allowed_tokens"},
		{Name: "doc"},
		{Name: "custom_data"},
		{Name: "custom"},
		{Name: "targets"},
		{Name: "connections"},
	},
}

// Format decodes HCL layers.
type Format struct{}

var _ schema.Format = (*Format)(nil)

// New returns the HCL layer format.
func New() *Format {
	return &Format{}
}

func (*Format) Name() string { return "hcl" }

func (*Format) Extensions() []string {
	return []string{".hcl"}
}

// Decode parses an HCL layer document.
func (f *Format) Decode(doc schema.Document) (*schema.Layer, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(doc.Raw(), doc.Location())
	if diags.HasErrors() {
		return nil, fmt.Errorf("hclschema: parse %s: %w", doc.Location(), diags)
	}

	layer, diags := decodeLayer(doc.Location(), file.Body)
	if diags.HasErrors() {
		return nil, fmt.Errorf("hclschema: decode %s: %w", doc.Location(), diags)
	}
	return layer, nil
}

func decodeLayer(location string, body hcl.Body) (*schema.Layer, hcl.Diagnostics) {
	content, diags := body.Content(layerSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	layer := schema.NewLayer(location)
	diags = append(diags, decodeAttr(content.Attributes, "comment", &layer.Comment)...)
	diags = append(diags, decodeAttr(content.Attributes, "doc", &layer.Documentation)...)
	diags = append(diags, decodeAttr(content.Attributes, "sublayers", &layer.SubLayers)...)

	for _, block := range content.Blocks.OfType("class") {
		name := block.Labels[0]
		cls, classDiags := decodeClass(name, block.Body)
		diags = append(diags, classDiags...)
		if classDiags.HasErrors() {
			continue
		}
		if err := layer.Classes.Insert(name, cls); err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate class",
				Detail:   fmt.Sprintf("A class named %q has already been declared in this layer.", name),
				Subject:  &block.DefRange,
			})
		}
	}
	return layer, diags
}

func decodeClass(name string, body hcl.Body) (*schema.ClassSpec, hcl.Diagnostics) {
	content, diags := body.Content(classSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	cls := &schema.ClassSpec{Name: name, Specifier: schema.SpecifierClass}
	if name == schema.GlobalClassName {
		cls.Specifier = schema.SpecifierOver
	}

	if attr, ok := content.Attributes["specifier"]; ok {
		var spec string
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &spec)...)
		cls.Specifier = schema.Specifier(spec)
		if !cls.Specifier.Valid() {
			diags = append(diags, invalid(attr, "Unknown specifier", fmt.Sprintf("Class %q uses specifier %q; expected def, over or class.", name, spec)))
		}
	}
	diags = append(diags, decodeAttr(content.Attributes, "type_name", &cls.TypeName)...)

	var inherits []string
	diags = append(diags, decodeAttr(content.Attributes, "inherits", &inherits)...)
	for _, p := range inherits {
		cls.Inherits = append(cls.Inherits, schema.ClassNameFromPath(p))
	}
	if attr, ok := content.Attributes["doc"]; ok {
		var doc string
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &doc)...)
		cls.SetDocumentation(doc)
	}
	data, dataDiags := decodeData(content.Attributes["custom_data"])
	diags = append(diags, dataDiags...)
	cls.CustomData = data

	// Blocks keep source order, so attributes and relationships interleave
	// the way they were authored.
	for _, block := range content.Blocks {
		kind := schema.KindAttribute
		if block.Type == "relationship" {
			kind = schema.KindRelationship
		}
		prop, propDiags := decodeProperty(block.Labels[0], kind, block.Body)
		diags = append(diags, propDiags...)
		if propDiags.HasErrors() {
			continue
		}
		if err := cls.Properties.Insert(prop.Name, prop); err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate property",
				Detail:   fmt.Sprintf("Property %q is declared twice on class %q.", prop.Name, name),
				Subject:  &block.DefRange,
			})
		}
	}
	return cls, diags
}

func decodeProperty(name string, kind schema.PropertyKind, body hcl.Body) (*schema.PropertySpec, hcl.Diagnostics) {
	content, diags := body.Content(propertySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	prop := &schema.PropertySpec{Name: name, Kind: kind}
	diags = append(diags, decodeAttr(content.Attributes, "type", &prop.TypeName)...)

	if attr, ok := content.Attributes["variability"]; ok {
		var v string
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &v)...)
		prop.Variability = schema.Variability(v)
		if prop.Variability != schema.Varying && prop.Variability != schema.Uniform {
			diags = append(diags, invalid(attr, "Unknown variability", fmt.Sprintf("Property %q uses variability %q; expected varying or uniform.", name, v)))
		}
	}
	diags = append(diags, decodeAttr(content.Attributes, "allowed_tokens", &prop.AllowedTokens)...)
	if attr, ok := content.Attributes["doc"]; ok {
		var doc string
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &doc)...)
		prop.SetDocumentation(doc)
	}
	diags = append(diags, decodeAttr(content.Attributes, "custom", &prop.Custom)...)
	diags = append(diags, decodeAttr(content.Attributes, "targets", &prop.Targets)...)
	diags = append(diags, decodeAttr(content.Attributes, "connections", &prop.Connections)...)

	data, dataDiags := decodeData(content.Attributes["custom_data"])
	diags = append(diags, dataDiags...)
	prop.CustomData = data

	if attr, ok := content.Attributes["default"]; ok {
		// Defaults must be literals, so there is no evaluation context.
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if !valDiags.HasErrors() {
			native, err := ctyToNative(val)
			if err == nil && kind == schema.KindAttribute {
				if vt, known := schema.LookupValueType(prop.TypeName); known {
					native, err = vt.Coerce(native)
				}
			}
			if err != nil {
				diags = append(diags, invalid(attr, "Invalid default value", err.Error()))
			} else {
				prop.Default = native
				prop.HasDefault = true
			}
		}
	}
	return prop, diags
}

func decodeAttr(attrs hcl.Attributes, name string, target any) hcl.Diagnostics {
	attr, ok := attrs[name]
	if !ok {
		return nil
	}
	return gohcl.DecodeExpression(attr.Expr, nil, target)
}

func decodeData(attr *hcl.Attribute) (map[string]any, hcl.Diagnostics) {
	if attr == nil {
		return nil, nil
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	native, err := ctyToNative(val)
	if err != nil {
		return nil, hcl.Diagnostics{invalid(attr, "Invalid custom data", err.Error())}
	}
	data, ok := native.(map[string]any)
	if !ok && native != nil {
		return nil, hcl.Diagnostics{invalid(attr, "Invalid custom data", "custom_data must be an object.")}
	}
	return data, nil
}

func invalid(attr *hcl.Attribute, summary, detail string) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  attr.Expr.Range().Ptr(),
	}
}

// ctyToNative converts a literal cty value into plain Go values. Whole numbers
// become int64 so integer defaults survive without a float detour.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("convert number: %w", err)
		}
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
	}
}
