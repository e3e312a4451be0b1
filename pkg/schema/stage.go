package schema

// Stage is the composed query surface over a layer stack. Implementations
// resolve sublayers, inherits and property opinions; consumers never look at
// raw layers except through RootLayer and LayerStack.
type Stage interface {
	// RootLayer is the layer the stage was opened on.
	RootLayer() *Layer
	// LayerStack lists the root layer and its sublayers, strongest first.
	LayerStack() []*Layer
	// SessionLayer is an anonymous overlay stronger than every other layer.
	// Edits to it are never persisted.
	SessionLayer() *Layer
	// RootClasses lists every composed root class name, in authoring order.
	RootClasses() []string
	Class(name string) (*ComposedClass, error)
	Inherits(name string) ([]string, error)
	CustomData(name string) (map[string]any, error)
	Properties(name string) ([]Property, error)
	// DefiningSpec returns the first layer of the stack holding a root spec
	// called name.
	DefiningSpec(name string) (*Layer, *ClassSpec, bool)
	// Flatten bakes the composed stage into a single layer without inherits.
	Flatten() (*Layer, error)
}

// ComposedClass is the composed view of one root class.
type ComposedClass struct {
	Name             string
	Specifier        Specifier
	TypeName         string
	Inherits         []string
	Documentation    string
	HasDocumentation bool
	CustomData       map[string]any
	Properties       []Property
}

// Opinion is one entry in a property's provenance stack.
type Opinion struct {
	Layer *Layer
	// Class is the class spec that holds the opinion. It differs from the
	// queried class when the opinion arrives through an inherit.
	Class     string
	Specifier Specifier
	Spec      *PropertySpec
}

// Property is either an *AttributeProperty or a *RelationshipProperty.
type Property interface {
	PropertyName() string
	// Stack lists contributing opinions, strongest first.
	Stack() []Opinion
	Doc() (string, bool)
	Data() map[string]any
	IsCustom() bool
	sealed()
}

// AttributeProperty is a composed attribute.
type AttributeProperty struct {
	Name             string
	TypeName         string
	Variability      Variability
	Default          any
	HasDefault       bool
	AllowedTokens    []string
	Documentation    string
	HasDocumentation bool
	CustomData       map[string]any
	Custom           bool
	Opinions         []Opinion
}

func (a *AttributeProperty) PropertyName() string { return a.Name }
func (a *AttributeProperty) Stack() []Opinion { return a.Opinions }
func (a *AttributeProperty) Doc() (string, bool) { return a.Documentation, a.HasDocumentation }
func (a *AttributeProperty) Data() map[string]any { return a.CustomData }
func (a *AttributeProperty) IsCustom() bool { return a.Custom }
func (*AttributeProperty) sealed() {}

// RelationshipProperty is a composed relationship.
type RelationshipProperty struct {
	Name             string
	Variability      Variability
	Documentation    string
	HasDocumentation bool
	CustomData       map[string]any
	Custom           bool
	Opinions         []Opinion
}

func (r *RelationshipProperty) PropertyName() string { return r.Name }
func (r *RelationshipProperty) Stack() []Opinion { return r.Opinions }
func (r *RelationshipProperty) Doc() (string, bool) { return r.Documentation, r.HasDocumentation }
func (r *RelationshipProperty) Data() map[string]any { return r.CustomData }
func (r *RelationshipProperty) IsCustom() bool { return r.Custom }
func (*RelationshipProperty) sealed() {}
