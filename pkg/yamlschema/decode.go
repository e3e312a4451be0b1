// Package yamlschema reads and writes schema layers authored as YAML or JSON.
//
// A layer is a mapping with optional "comment", "doc" and "subLayers" keys and
// a "classes" mapping. Class and property order follows the document.
package yamlschema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

// Format decodes and encodes YAML/JSON layers.
type Format struct{}

var (
	_ schema.Format  = (*Format)(nil)
	_ schema.Encoder = (*Format)(nil)
)

// New returns the YAML layer format.
func New() *Format {
	return &Format{}
}

func (*Format) Name() string { return "yaml" }

func (*Format) Extensions() []string {
	return []string{".yaml", ".yml", ".json"}
}

// Decode parses a layer document.
func (f *Format) Decode(doc schema.Document) (*schema.Layer, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(doc.Raw(), &root); err != nil {
		return nil, &schema.DecodeError{Location: doc.Location(), Message: err.Error()}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &schema.DecodeError{Location: doc.Location(), Message: "document is empty"}
	}

	d := decoder{location: doc.Location()}
	return d.layer(root.Content[0])
}

type decoder struct {
	location string
}

func (d decoder) fail(node *yaml.Node, format string, args ...any) error {
	line := 0
	if node != nil {
		line = node.Line
	}
	return &schema.DecodeError{Location: d.location, Line: line, Message: fmt.Sprintf(format, args...)}
}

func (d decoder) layer(node *yaml.Node) (*schema.Layer, error) {
	if node.Kind != yaml.MappingNode {
		return nil, d.fail(node, "layer must be a mapping")
	}
	layer := schema.NewLayer(d.location)
	err := d.eachPair(node, func(key string, value *yaml.Node) error {
		switch key {
		case "comment":
			return d.scalar(value, &layer.Comment)
		case "doc", "documentation":
			return d.scalar(value, &layer.Documentation)
		case "subLayers", "sublayers":
			return d.strings(value, &layer.SubLayers)
		case "classes":
			return d.classes(value, layer)
		default:
			return d.fail(value, "unknown layer field %q", key)
		}
	})
	if err != nil {
		return nil, err
	}
	return layer, nil
}

func (d decoder) classes(node *yaml.Node, layer *schema.Layer) error {
	if node.Kind != yaml.MappingNode {
		return d.fail(node, "classes must be a mapping")
	}
	return d.eachPair(node, func(name string, value *yaml.Node) error {
		cls, err := d.class(name, value)
		if err != nil {
			return err
		}
		if err := layer.Classes.Insert(name, cls); err != nil {
			return d.fail(value, "class %q declared twice", name)
		}
		return nil
	})
}

func (d decoder) class(name string, node *yaml.Node) (*schema.ClassSpec, error) {
	cls := &schema.ClassSpec{Name: name, Specifier: schema.SpecifierClass}
	if name == schema.GlobalClassName {
		cls.Specifier = schema.SpecifierOver
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return cls, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, d.fail(node, "class %q must be a mapping", name)
	}

	err := d.eachPair(node, func(key string, value *yaml.Node) error {
		switch key {
		case "specifier":
			var spec string
			if err := d.scalar(value, &spec); err != nil {
				return err
			}
			cls.Specifier = schema.Specifier(spec)
			if !cls.Specifier.Valid() {
				return d.fail(value, "class %q has unknown specifier %q", name, spec)
			}
		case "typeName", "type":
			return d.scalar(value, &cls.TypeName)
		case "inherits":
			var inherits []string
			if err := d.strings(value, &inherits); err != nil {
				return err
			}
			for _, p := range inherits {
				cls.Inherits = append(cls.Inherits, schema.ClassNameFromPath(p))
			}
		case "doc", "documentation":
			var doc string
			if err := d.scalar(value, &doc); err != nil {
				return err
			}
			cls.SetDocumentation(doc)
		case "customData":
			return d.data(value, &cls.CustomData)
		case "properties":
			return d.properties(value, cls)
		default:
			return d.fail(value, "unknown field %q on class %q", key, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cls, nil
}

func (d decoder) properties(node *yaml.Node, cls *schema.ClassSpec) error {
	if node.Kind != yaml.MappingNode {
		return d.fail(node, "properties of %q must be a mapping", cls.Name)
	}
	return d.eachPair(node, func(name string, value *yaml.Node) error {
		prop, err := d.property(cls.Name, name, value)
		if err != nil {
			return err
		}
		if err := cls.Properties.Insert(name, prop); err != nil {
			return d.fail(value, "property %s.%s declared twice", cls.Name, name)
		}
		return nil
	})
}

func (d decoder) property(className, name string, node *yaml.Node) (*schema.PropertySpec, error) {
	prop := &schema.PropertySpec{Name: name, Kind: schema.KindAttribute}
	if node.Kind != yaml.MappingNode {
		return nil, d.fail(node, "property %s.%s must be a mapping", className, name)
	}

	var rawDefault *yaml.Node
	err := d.eachPair(node, func(key string, value *yaml.Node) error {
		switch key {
		case "kind":
			var kind string
			if err := d.scalar(value, &kind); err != nil {
				return err
			}
			prop.Kind = schema.PropertyKind(kind)
			if prop.Kind != schema.KindAttribute && prop.Kind != schema.KindRelationship {
				return d.fail(value, "property %s.%s has unknown kind %q", className, name, kind)
			}
		case "type", "typeName":
			return d.scalar(value, &prop.TypeName)
		case "variability":
			var v string
			if err := d.scalar(value, &v); err != nil {
				return err
			}
			prop.Variability = schema.Variability(v)
			if prop.Variability != schema.Varying && prop.Variability != schema.Uniform {
				return d.fail(value, "property %s.%s has unknown variability %q", className, name, v)
			}
		case "default":
			rawDefault = value
		case "allowedTokens":
			return d.strings(value, &prop.AllowedTokens)
		case "doc", "documentation":
			var doc string
			if err := d.scalar(value, &doc); err != nil {
				return err
			}
			prop.SetDocumentation(doc)
		case "customData":
			return d.data(value, &prop.CustomData)
		case "custom":
			return value.Decode(&prop.Custom)
		case "targets":
			return d.strings(value, &prop.Targets)
		case "connections":
			return d.strings(value, &prop.Connections)
		default:
			return d.fail(value, "unknown field %q on property %s.%s", key, className, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rawDefault != nil {
		var value any
		if err := rawDefault.Decode(&value); err != nil {
			return nil, d.fail(rawDefault, "default of %s.%s: %v", className, name, err)
		}
		if vt, ok := schema.LookupValueType(prop.TypeName); ok && prop.Kind == schema.KindAttribute {
			value, err = vt.Coerce(value)
			if err != nil {
				return nil, d.fail(rawDefault, "default of %s.%s: %v", className, name, err)
			}
		}
		prop.Default = value
		prop.HasDefault = true
	}
	return prop, nil
}

func (d decoder) eachPair(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if key.Kind != yaml.ScalarNode {
			return d.fail(key, "mapping keys must be scalars")
		}
		if err := fn(key.Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (d decoder) scalar(node *yaml.Node, out *string) error {
	if node.Kind != yaml.ScalarNode {
		return d.fail(node, "expected a scalar")
	}
	*out = node.Value
	return nil
}

func (d decoder) strings(node *yaml.Node, out *[]string) error {
	if node.Kind != yaml.SequenceNode {
		return d.fail(node, "expected a list")
	}
	values := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return d.fail(item, "expected a list of scalars")
		}
		values = append(values, item.Value)
	}
	*out = values
	return nil
}

func (d decoder) data(node *yaml.Node, out *map[string]any) error {
	if node.Kind != yaml.MappingNode {
		return d.fail(node, "customData must be a mapping")
	}
	data := map[string]any{}
	if err := node.Decode(&data); err != nil {
		return d.fail(node, "customData: %v", err)
	}
	*out = data
	return nil
}
