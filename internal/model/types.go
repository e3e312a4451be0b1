package model

import (
	"slices"
	"strings"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

// SchemaBase names the implicit root every generated class ultimately
// derives from.
const (
	SchemaBaseGeneratedName = "SchemaBase"
	SchemaBaseFileName      = "schemaBase"
)

// API getter implementations selectable through customData.apiGetImplementation.
const (
	APIGetGenerated = "generated"
	APIGetCustom    = "custom"
)

// Detail is one labelled line of property documentation.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PropertyModel is one attribute or relationship of a generated class.
type PropertyModel struct {
	Name string `json:"name"`
	// APIName drives accessor naming. Empty means no accessor is generated.
	APIName       string              `json:"apiName"`
	RawName       string              `json:"rawName"`
	Documentation string              `json:"documentation,omitempty"`
	IsCustom      bool                `json:"isCustom,omitempty"`
	Kind          schema.PropertyKind `json:"kind"`
	DefiningClass string              `json:"definingClass"`
	APIGet        string              `json:"apiGet,omitempty"`

	// Attribute-only.
	ValueType     string             `json:"valueType,omitempty"`
	GoType        string             `json:"goType,omitempty"`
	Variability   schema.Variability `json:"variability,omitempty"`
	Fallback      any                `json:"fallback,omitempty"`
	HasFallback   bool               `json:"hasFallback,omitempty"`
	AllowedTokens []string           `json:"allowedTokens,omitempty"`
	Details       []Detail           `json:"details,omitempty"`
}

// IsAttribute reports whether the property is an attribute.
func (p *PropertyModel) IsAttribute() bool {
	return p.Kind == schema.KindAttribute
}

// PropertySet is an insertion-ordered set of properties keyed by normalized
// name.
type PropertySet = schema.OrderedMap[*PropertyModel]

// ClassModel is the generation model for one schema class.
type ClassModel struct {
	SchemaTypeName     string `json:"schemaTypeName"`
	ClassName          string `json:"className"`
	GeneratedClassName string `json:"generatedClassName"`
	BaseFileName       string `json:"baseFileName"`

	ParentClassName          string `json:"parentClassName"`
	ParentGeneratedClassName string `json:"parentGeneratedClassName"`
	ParentBaseFileName       string `json:"parentBaseFileName"`
	ParentLibraryPath        string `json:"parentLibraryPath"`

	Inherits      []string       `json:"inherits,omitempty"`
	TypeName      string         `json:"typeName,omitempty"`
	IsConcrete    bool           `json:"isConcrete"`
	Documentation string         `json:"documentation,omitempty"`
	CustomData    map[string]any `json:"customData,omitempty"`
	ExtraImports  []string       `json:"extraImports,omitempty"`
	ExtraPlugInfo map[string]any `json:"extraPlugInfo,omitempty"`

	// Attrs and Rels are keyed by the class that locally declares the
	// properties; the class's own bucket uses SchemaTypeName.
	Attrs schema.OrderedMap[*PropertySet] `json:"attrs"`
	Rels  schema.OrderedMap[*PropertySet] `json:"rels"`

	tokens map[string]struct{}
}

// OwnAttrs returns the attributes the class declares itself.
func (c *ClassModel) OwnAttrs() []*PropertyModel {
	return bucket(&c.Attrs, c.SchemaTypeName)
}

// OwnRels returns the relationships the class declares itself.
func (c *ClassModel) OwnRels() []*PropertyModel {
	return bucket(&c.Rels, c.SchemaTypeName)
}

// HasTokenAttrs reports whether any own attribute is token valued.
func (c *ClassModel) HasTokenAttrs() bool {
	for _, attr := range c.OwnAttrs() {
		if vt, ok := schema.LookupValueType(attr.ValueType); ok && vt.Scalar == schema.TokenType {
			return true
		}
	}
	return false
}

func bucket(m *schema.OrderedMap[*PropertySet], class string) []*PropertyModel {
	set, ok := m.Get(class)
	if !ok {
		return nil
	}
	return set.Values()
}

func addToBucket(m *schema.OrderedMap[*PropertySet], class string, prop *PropertyModel) error {
	set, ok := m.Get(class)
	if !ok {
		set = schema.NewOrderedMap[*PropertyModel]()
		m.Set(class, set)
	}
	return set.Insert(prop.Name, prop)
}

// AddToken records that the class references token id.
func (c *ClassModel) AddToken(id string) {
	if c.tokens == nil {
		c.tokens = make(map[string]struct{})
	}
	c.tokens[id] = struct{}{}
}

// Tokens returns the referenced token ids sorted case-insensitively.
func (c *ClassModel) Tokens() []string {
	out := make([]string, 0, len(c.tokens))
	for id := range c.tokens {
		out = append(out, id)
	}
	sortTokenIDs(out)
	return out
}

func sortTokenIDs(ids []string) {
	slices.SortFunc(ids, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

// LibraryToken is a library-wide token declared in GLOBAL custom data.
type LibraryToken struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Doc   string `json:"doc,omitempty"`
}

// Library is the library metadata of the processed schema layer.
type Library struct {
	Name               string         `json:"name"`
	Path               string         `json:"path"`
	Prefix             string         `json:"prefix"`
	TokensPrefix       string         `json:"tokensPrefix"`
	UseExportAPI       bool           `json:"useExportAPI"`
	SkipCodeGeneration bool           `json:"skipCodeGeneration,omitempty"`
	Tokens             []LibraryToken `json:"tokens,omitempty"`
}

// Result is everything the builder derives from a stage.
type Result struct {
	Library Library       `json:"library"`
	Classes []*ClassModel `json:"classes"`
}

// ClassNames lists the schema type names of the built classes.
func (r *Result) ClassNames() []string {
	names := make([]string, len(r.Classes))
	for i, cls := range r.Classes {
		names[i] = cls.SchemaTypeName
	}
	return names
}
