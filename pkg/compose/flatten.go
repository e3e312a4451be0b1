package compose

import (
	"fmt"
	"slices"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

// Flatten bakes every composed root class into a single layer. Inherits are
// resolved into concrete property values and dropped from the output.
func (s *Stage) Flatten() (*schema.Layer, error) {
	root := s.RootLayer()
	out := schema.NewLayer(root.Identifier)
	out.Comment = root.Comment
	out.Documentation = root.Documentation

	for _, name := range s.RootClasses() {
		cc, err := s.Class(name)
		if err != nil {
			return nil, fmt.Errorf("compose: flatten %q: %w", name, err)
		}
		out.Classes.Set(name, flattenClass(cc))
	}
	return out, nil
}

func flattenClass(cc *schema.ComposedClass) *schema.ClassSpec {
	spec := &schema.ClassSpec{
		Name:       cc.Name,
		Specifier:  cc.Specifier,
		TypeName:   cc.TypeName,
		CustomData: schema.CloneData(cc.CustomData),
	}
	if cc.HasDocumentation {
		spec.SetDocumentation(cc.Documentation)
	}

	for _, prop := range cc.Properties {
		var ps *schema.PropertySpec
		switch p := prop.(type) {
		case *schema.AttributeProperty:
			ps = &schema.PropertySpec{
				Name:          p.Name,
				Kind:          schema.KindAttribute,
				TypeName:      p.TypeName,
				Variability:   p.Variability,
				Default:       p.Default,
				HasDefault:    p.HasDefault,
				AllowedTokens: slices.Clone(p.AllowedTokens),
				Custom:        p.Custom,
			}
		case *schema.RelationshipProperty:
			ps = &schema.PropertySpec{
				Name:        p.Name,
				Kind:        schema.KindRelationship,
				Variability: p.Variability,
				Custom:      p.Custom,
			}
		}
		if doc, ok := prop.Doc(); ok {
			ps.SetDocumentation(doc)
		}
		ps.CustomData = schema.CloneData(prop.Data())
		spec.Properties.Set(ps.Name, ps.Clone())
	}
	return spec
}
