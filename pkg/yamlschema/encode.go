package yamlschema

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

// Encode writes the layer as YAML, keeping class and property order.
func (f *Format) Encode(layer *schema.Layer) ([]byte, error) {
	if layer == nil {
		return nil, fmt.Errorf("yamlschema: layer is nil")
	}

	top := mapping()
	if layer.Comment != "" {
		addString(top, "comment", layer.Comment)
	}
	if layer.Documentation != "" {
		addString(top, "doc", layer.Documentation)
	}
	if len(layer.SubLayers) > 0 {
		addStrings(top, "subLayers", layer.SubLayers)
	}

	classes := mapping()
	for name, cls := range layer.Classes.All() {
		node, err := encodeClass(cls)
		if err != nil {
			return nil, fmt.Errorf("yamlschema: class %q: %w", name, err)
		}
		classes.Content = append(classes.Content, key(name), node)
	}
	top.Content = append(top.Content, key("classes"), classes)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{top}}); err != nil {
		return nil, fmt.Errorf("yamlschema: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yamlschema: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeClass(cls *schema.ClassSpec) (*yaml.Node, error) {
	node := mapping()
	addString(node, "specifier", string(cls.Specifier))
	if cls.TypeName != "" {
		addString(node, "typeName", cls.TypeName)
	}
	if len(cls.Inherits) > 0 {
		paths := make([]string, len(cls.Inherits))
		for i, name := range cls.Inherits {
			paths[i] = "/" + name
		}
		addStrings(node, "inherits", paths)
	}
	if cls.HasDocumentation {
		addString(node, "doc", cls.Documentation)
	}
	if len(cls.CustomData) > 0 {
		if err := addValue(node, "customData", cls.CustomData); err != nil {
			return nil, err
		}
	}
	if cls.Properties.Len() == 0 {
		return node, nil
	}

	props := mapping()
	for name, prop := range cls.Properties.All() {
		pn, err := encodeProperty(prop)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		props.Content = append(props.Content, key(name), pn)
	}
	node.Content = append(node.Content, key("properties"), props)
	return node, nil
}

func encodeProperty(prop *schema.PropertySpec) (*yaml.Node, error) {
	node := mapping()
	if prop.Kind == schema.KindRelationship {
		addString(node, "kind", string(prop.Kind))
	}
	if prop.TypeName != "" {
		addString(node, "type", prop.TypeName)
	}
	if prop.Variability != "" {
		addString(node, "variability", string(prop.Variability))
	}
	if prop.HasDefault {
		if err := addValue(node, "default", prop.Default); err != nil {
			return nil, err
		}
	}
	if len(prop.AllowedTokens) > 0 {
		addStrings(node, "allowedTokens", prop.AllowedTokens)
	}
	if prop.HasDocumentation {
		addString(node, "doc", prop.Documentation)
	}
	if len(prop.CustomData) > 0 {
		if err := addValue(node, "customData", prop.CustomData); err != nil {
			return nil, err
		}
	}
	if prop.Custom {
		if err := addValue(node, "custom", true); err != nil {
			return nil, err
		}
	}
	if len(prop.Targets) > 0 {
		addStrings(node, "targets", prop.Targets)
	}
	if len(prop.Connections) > 0 {
		addStrings(node, "connections", prop.Connections)
	}
	return node, nil
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func key(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

func addString(node *yaml.Node, name, value string) {
	v := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	node.Content = append(node.Content, key(name), v)
}

func addStrings(node *yaml.Node, name string, values []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}
	node.Content = append(node.Content, key(name), seq)
}

func addValue(node *yaml.Node, name string, value any) error {
	v := &yaml.Node{}
	if err := v.Encode(value); err != nil {
		return err
	}
	node.Content = append(node.Content, key(name), v)
	return nil
}
