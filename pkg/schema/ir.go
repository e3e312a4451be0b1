package schema

import (
	"maps"
	"slices"
	"strings"
)

// Well-known root entries of a schema layer.
const (
	// GlobalClassName holds library metadata in its custom data.
	GlobalClassName = "GLOBAL"
	// TypedClassName is the abstract root every typed class inherits from.
	TypedClassName = "Typed"
	// SchemaBaseName is the implicit parent of classes that inherit nothing.
	SchemaBaseName = "SchemaBase"
)

// Specifier describes how a class spec contributes to composition.
type Specifier string

const (
	SpecifierDef   Specifier = "def"
	SpecifierOver  Specifier = "over"
	SpecifierClass Specifier = "class"
)

// Defines reports whether the specifier declares rather than modifies.
func (s Specifier) Defines() bool {
	return s == SpecifierDef || s == SpecifierClass
}

// Valid reports whether s is one of the known specifiers.
func (s Specifier) Valid() bool {
	return s == SpecifierDef || s == SpecifierOver || s == SpecifierClass
}

// PropertyKind distinguishes attributes from relationships.
type PropertyKind string

const (
	KindAttribute    PropertyKind = "attribute"
	KindRelationship PropertyKind = "relationship"
)

// Variability of an attribute value.
type Variability string

const (
	Varying Variability = "varying"
	Uniform Variability = "uniform"
)

// Layer is one authored schema document.
type Layer struct {
	Identifier    string
	Comment       string
	Documentation string
	SubLayers     []string
	Classes       OrderedMap[*ClassSpec]
}

// NewLayer returns an empty layer with the given identifier.
func NewLayer(identifier string) *Layer {
	return &Layer{Identifier: identifier}
}

// Class returns the root class spec called name.
func (l *Layer) Class(name string) (*ClassSpec, bool) {
	if l == nil {
		return nil, false
	}
	return l.Classes.Get(name)
}

// Global returns the library metadata pseudo-class when present.
func (l *Layer) Global() (*ClassSpec, bool) {
	return l.Class(GlobalClassName)
}

// RemoveClass deletes a root class spec.
func (l *Layer) RemoveClass(name string) bool {
	if l == nil {
		return false
	}
	return l.Classes.Delete(name)
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	if l == nil {
		return nil
	}
	out := &Layer{
		Identifier:    l.Identifier,
		Comment:       l.Comment,
		Documentation: l.Documentation,
		SubLayers:     slices.Clone(l.SubLayers),
	}
	for name, cls := range l.Classes.All() {
		out.Classes.Set(name, cls.Clone())
	}
	return out
}

// ClassSpec is one class opinion authored in a single layer.
type ClassSpec struct {
	Name             string
	Specifier        Specifier
	TypeName         string
	Inherits         []string
	Documentation    string
	HasDocumentation bool
	CustomData       map[string]any
	Properties       OrderedMap[*PropertySpec]
}

// SetDocumentation authors documentation on the spec.
func (c *ClassSpec) SetDocumentation(doc string) {
	c.Documentation = doc
	c.HasDocumentation = true
}

// ClearDocumentation removes authored documentation.
func (c *ClassSpec) ClearDocumentation() {
	c.Documentation = ""
	c.HasDocumentation = false
}

// Property returns the property spec called name.
func (c *ClassSpec) Property(name string) (*PropertySpec, bool) {
	return c.Properties.Get(name)
}

// Clone returns a deep copy of the spec.
func (c *ClassSpec) Clone() *ClassSpec {
	if c == nil {
		return nil
	}
	out := &ClassSpec{
		Name:             c.Name,
		Specifier:        c.Specifier,
		TypeName:         c.TypeName,
		Inherits:         slices.Clone(c.Inherits),
		Documentation:    c.Documentation,
		HasDocumentation: c.HasDocumentation,
		CustomData:       CloneData(c.CustomData),
	}
	for name, prop := range c.Properties.All() {
		out.Properties.Set(name, prop.Clone())
	}
	return out
}

// PropertySpec is one property opinion authored on a class spec.
type PropertySpec struct {
	Name     string
	Kind     PropertyKind
	TypeName string
	// Variability is empty when the layer does not author it.
	Variability      Variability
	Default          any
	HasDefault       bool
	AllowedTokens    []string
	Documentation    string
	HasDocumentation bool
	CustomData       map[string]any
	Custom           bool
	Targets          []string
	Connections      []string
}

// SetDocumentation authors documentation on the spec.
func (p *PropertySpec) SetDocumentation(doc string) {
	p.Documentation = doc
	p.HasDocumentation = true
}

// Clone returns a deep copy of the spec.
func (p *PropertySpec) Clone() *PropertySpec {
	if p == nil {
		return nil
	}
	out := *p
	out.Default = cloneValue(p.Default)
	out.AllowedTokens = slices.Clone(p.AllowedTokens)
	out.CustomData = CloneData(p.CustomData)
	out.Targets = slices.Clone(p.Targets)
	out.Connections = slices.Clone(p.Connections)
	return &out
}

// ClassNameFromPath accepts either "/Name" or "Name" and returns "Name".
func ClassNameFromPath(p string) string {
	return strings.TrimPrefix(strings.TrimSpace(p), "/")
}

// CloneData deep-copies a custom data dictionary.
func CloneData(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return CloneData(tv)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(tv)
	default:
		return v
	}
}

// MergeData overlays stronger on top of weaker, recursing into nested
// dictionaries.
func MergeData(stronger, weaker map[string]any) map[string]any {
	if len(stronger) == 0 && len(weaker) == 0 {
		return nil
	}
	out := CloneData(weaker)
	if out == nil {
		out = make(map[string]any, len(stronger))
	}
	for k, v := range stronger {
		sub, ok := v.(map[string]any)
		prev, prevOK := out[k].(map[string]any)
		if ok && prevOK {
			out[k] = MergeData(sub, prev)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// SortedKeys returns the keys of a custom data dictionary in order.
func SortedKeys(in map[string]any) []string {
	return slices.Sorted(maps.Keys(in))
}
