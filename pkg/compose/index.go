package compose

import (
	"fmt"
	"slices"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

// specNode is one class spec contributing to a composed class.
type specNode struct {
	layer *schema.Layer
	spec  *schema.ClassSpec
	// local is false for specs reached through an inherit.
	local bool
}

// RootClasses lists every root class name across the session layer and the
// stack, in authoring order of the strongest layer that mentions it.
func (s *Stage) RootClasses() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, layer := range s.layers() {
		for _, name := range layer.Classes.Keys() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	// Root layer order wins over session edits for classes it declares.
	root := s.RootLayer().Classes.Keys()
	slices.SortStableFunc(names, func(a, b string) int {
		return rank(root, a) - rank(root, b)
	})
	return names
}

func rank(order []string, name string) int {
	if i := slices.Index(order, name); i >= 0 {
		return i
	}
	return len(order)
}

// Class composes every opinion for name.
func (s *Stage) Class(name string) (*schema.ComposedClass, error) {
	nodes, err := s.index(name)
	if err != nil {
		return nil, err
	}

	cc := &schema.ComposedClass{Name: name, Specifier: schema.SpecifierOver}
	for _, n := range nodes {
		if n.local && n.spec.Specifier.Defines() {
			cc.Specifier = n.spec.Specifier
			break
		}
	}
	for _, n := range nodes {
		if n.local && len(n.spec.Inherits) > 0 {
			cc.Inherits = slices.Clone(n.spec.Inherits)
			break
		}
	}
	for _, n := range nodes {
		if n.spec.TypeName != "" {
			cc.TypeName = n.spec.TypeName
			break
		}
	}
	for _, n := range nodes {
		if n.spec.HasDocumentation {
			cc.Documentation = n.spec.Documentation
			cc.HasDocumentation = true
			break
		}
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		cc.CustomData = schema.MergeData(nodes[i].spec.CustomData, cc.CustomData)
	}
	cc.Properties = s.composeProperties(nodes, s.builtins[cc.TypeName])
	return cc, nil
}

// Inherits returns the composed inherit list of name.
func (s *Stage) Inherits(name string) ([]string, error) {
	cc, err := s.Class(name)
	if err != nil {
		return nil, err
	}
	return cc.Inherits, nil
}

// CustomData returns the composed custom data of name.
func (s *Stage) CustomData(name string) (map[string]any, error) {
	cc, err := s.Class(name)
	if err != nil {
		return nil, err
	}
	return cc.CustomData, nil
}

// Properties returns the composed properties of name, inherited ones first.
func (s *Stage) Properties(name string) ([]schema.Property, error) {
	cc, err := s.Class(name)
	if err != nil {
		return nil, err
	}
	return cc.Properties, nil
}

// index lists the specs contributing to name, strongest first: local
// opinions from every layer, then each inherited class in authored order.
func (s *Stage) index(name string) ([]specNode, error) {
	var nodes []specNode
	visiting := make(map[string]bool)
	seen := make(map[*schema.ClassSpec]bool)

	var walk func(class string, local bool, depth int) error
	walk = func(class string, local bool, depth int) error {
		if visiting[class] {
			return fmt.Errorf("compose: inherit cycle through %q", class)
		}
		if depth > defaultMaxInheritDepth {
			return fmt.Errorf("compose: inherit depth exceeds %d at %q", defaultMaxInheritDepth, class)
		}
		visiting[class] = true
		defer delete(visiting, class)

		var inherits []string
		for _, layer := range s.layers() {
			spec, ok := layer.Class(class)
			if !ok || seen[spec] {
				continue
			}
			seen[spec] = true
			nodes = append(nodes, specNode{layer: layer, spec: spec, local: local})
			if inherits == nil && len(spec.Inherits) > 0 {
				inherits = spec.Inherits
			}
		}
		for _, parent := range inherits {
			if err := walk(parent, false, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(name, true, 0); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrClassNotFound, name)
	}
	return nodes, nil
}

func (s *Stage) composeProperties(nodes []specNode, builtin *schema.ClassSpec) []schema.Property {
	var order []string
	seen := make(map[string]struct{})
	for i := len(nodes) - 1; i >= 0; i-- {
		for _, name := range nodes[i].spec.Properties.Keys() {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				order = append(order, name)
			}
		}
	}
	if builtin != nil {
		for _, name := range builtin.Properties.Keys() {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				order = append(order, name)
			}
		}
	}

	props := make([]schema.Property, 0, len(order))
	for _, name := range order {
		var stack []schema.Opinion
		for _, n := range nodes {
			if spec, ok := n.spec.Properties.Get(name); ok {
				stack = append(stack, schema.Opinion{
					Layer:     n.layer,
					Class:     n.spec.Name,
					Specifier: n.spec.Specifier,
					Spec:      spec,
				})
			}
		}
		var def *schema.PropertySpec
		if builtin != nil {
			def, _ = builtin.Properties.Get(name)
		}
		props = append(props, composeProperty(name, stack, def))
	}
	return props
}

// composeProperty resolves the strongest opinion for each field. A builtin
// definition fixes the value type and variability and supplies fallbacks for
// anything the stack leaves unauthored.
func composeProperty(name string, stack []schema.Opinion, def *schema.PropertySpec) schema.Property {
	kind := schema.KindAttribute
	switch {
	case len(stack) > 0:
		kind = stack[0].Spec.Kind
	case def != nil:
		kind = def.Kind
	}

	var (
		variability schema.Variability
		doc         string
		hasDoc      bool
		data        map[string]any
		custom      bool
	)
	if len(stack) > 0 {
		custom = stack[0].Spec.Custom
	}
	for _, op := range stack {
		if variability == "" {
			variability = op.Spec.Variability
		}
		if !hasDoc && op.Spec.HasDocumentation {
			doc, hasDoc = op.Spec.Documentation, true
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		data = schema.MergeData(stack[i].Spec.CustomData, data)
	}
	if def != nil {
		if def.Variability != "" {
			variability = def.Variability
		}
		if !hasDoc && def.HasDocumentation {
			doc, hasDoc = def.Documentation, true
		}
	}

	if kind == schema.KindRelationship {
		return &schema.RelationshipProperty{
			Name:             name,
			Variability:      variability,
			Documentation:    doc,
			HasDocumentation: hasDoc,
			CustomData:       data,
			Custom:           custom,
			Opinions:         stack,
		}
	}

	attr := &schema.AttributeProperty{
		Name:             name,
		Variability:      variability,
		Documentation:    doc,
		HasDocumentation: hasDoc,
		CustomData:       data,
		Custom:           custom,
		Opinions:         stack,
	}
	if attr.Variability == "" {
		attr.Variability = schema.Varying
	}
	for _, op := range stack {
		if attr.TypeName == "" {
			attr.TypeName = op.Spec.TypeName
		}
		if !attr.HasDefault && op.Spec.HasDefault {
			attr.Default, attr.HasDefault = op.Spec.Default, true
		}
		if attr.AllowedTokens == nil && op.Spec.AllowedTokens != nil {
			attr.AllowedTokens = slices.Clone(op.Spec.AllowedTokens)
		}
	}
	if def != nil {
		if def.TypeName != "" {
			attr.TypeName = def.TypeName
		}
		if !attr.HasDefault && def.HasDefault {
			attr.Default, attr.HasDefault = def.Default, true
		}
		if attr.AllowedTokens == nil && def.AllowedTokens != nil {
			attr.AllowedTokens = slices.Clone(def.AllowedTokens)
		}
	}
	return attr
}
