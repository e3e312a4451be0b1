// Package exporter converts a flattened registry layer into an OpenAPI 3
// components document using kin-openapi.
package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

const (
	variabilityExtension  = "x-variability"
	relationshipExtension = "x-relationship"
	schemaTypeExtension   = "x-schema-type"
	customExtension       = "x-custom"
)

// Options describes the document header.
type Options struct {
	Title   string
	Version string
}

// Build returns the validated OpenAPI document for layer.
func Build(ctx context.Context, layer *schema.Layer, opts Options) (*openapi3.T, error) {
	if layer == nil {
		return nil, fmt.Errorf("openapi exporter: layer is nil")
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   opts.Title,
			Version: opts.Version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}
	if layer.Documentation != "" {
		doc.Info.Description = layer.Documentation
	}

	for name, cls := range layer.Classes.All() {
		classSchema, err := classSchema(cls)
		if err != nil {
			return nil, fmt.Errorf("openapi exporter: class %s: %w", name, err)
		}
		doc.Components.Schemas[name] = openapi3.NewSchemaRef("", classSchema)
	}

	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi exporter: validate: %w", err)
	}
	return doc, nil
}

// Marshal encodes doc as indented JSON.
func Marshal(doc *openapi3.T) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("openapi exporter: encode: %w", err)
	}
	return data, nil
}

func classSchema(cls *schema.ClassSpec) (*openapi3.Schema, error) {
	out := openapi3.NewObjectSchema()
	out.Description = cls.Documentation
	if cls.TypeName != "" {
		out.Extensions = map[string]any{schemaTypeExtension: cls.TypeName}
	}
	for name, prop := range cls.Properties.All() {
		var (
			ps  *openapi3.Schema
			err error
		)
		if prop.Kind == schema.KindRelationship {
			ps = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
			ps.Extensions = map[string]any{relationshipExtension: true}
		} else {
			ps, err = attributeSchema(prop)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
		}
		ps.Description = prop.Documentation
		if prop.Custom {
			ps.Extensions[customExtension] = true
		}
		out.Properties[name] = openapi3.NewSchemaRef("", ps)
	}
	return out, nil
}

func attributeSchema(prop *schema.PropertySpec) (*openapi3.Schema, error) {
	vt, ok := schema.LookupValueType(prop.TypeName)
	if !ok {
		return nil, fmt.Errorf("unknown value type %q", prop.TypeName)
	}
	elem := scalarSchema(vt.Scalar, strings.TrimPrefix(vt.GoType, "[]"))
	ps := elem
	if vt.Array {
		ps = openapi3.NewArraySchema().WithItems(elem)
	}

	variability := prop.Variability
	if variability == "" {
		variability = schema.Varying
	}
	ps.Extensions = map[string]any{variabilityExtension: string(variability)}

	if prop.HasDefault {
		ps.Default = jsonValue(prop.Default)
	}
	if len(prop.AllowedTokens) > 0 {
		enum := make([]any, len(prop.AllowedTokens))
		for i, token := range prop.AllowedTokens {
			enum[i] = token
		}
		if vt.Array {
			elem.Enum = enum
		} else {
			ps.Enum = enum
		}
	}
	return ps, nil
}

func scalarSchema(scalar, goType string) *openapi3.Schema {
	switch scalar {
	case "bool":
		return openapi3.NewBoolSchema()
	case "int", "uchar":
		return openapi3.NewInt32Schema()
	case "uint", "int64", "uint64":
		return openapi3.NewInt64Schema()
	case "half", "float":
		return openapi3.NewFloat64Schema().WithFormat("float")
	case "double":
		return openapi3.NewFloat64Schema()
	case "string", "token":
		return openapi3.NewStringSchema()
	case "asset":
		return openapi3.NewStringSchema().WithFormat("uri-reference")
	default:
		// Fixed-size tuples such as [3]float32.
		size := tupleSize(goType)
		tuple := openapi3.NewArraySchema().WithItems(openapi3.NewFloat64Schema())
		tuple.MinItems = size
		tuple.MaxItems = openapi3.Uint64Ptr(size)
		return tuple
	}
}

func tupleSize(goType string) uint64 {
	end := strings.IndexByte(goType, ']')
	if !strings.HasPrefix(goType, "[") || end < 0 {
		return 0
	}
	n, err := strconv.ParseUint(goType[1:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// jsonValue converts coerced default values into the JSON-native forms the
// schema validator expects.
func jsonValue(v any) any {
	switch val := v.(type) {
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonValue(item)
		}
		return out
	default:
		return v
	}
}
