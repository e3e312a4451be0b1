package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-schemagen/internal/naming"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

// Builder converts the root classes of a composed schema into class models.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.DocLeader != "" {
		opts.DocLeader = options.DocLeader
	}
	if options.ClassName != nil {
		opts.ClassName = options.ClassName
	}
	return &Builder{opts: opts}
}

// Build walks the root layer of stage and returns one ClassModel per
// generated class. Non-fatal problems are recorded on rep; any fatal problem
// aborts the whole build.
func (b *Builder) Build(ctx context.Context, stage schema.Stage, rep *report.Report) (*Result, error) {
	root := stage.RootLayer()
	lib, err := LibraryFromLayer(root)
	if err != nil {
		return nil, err
	}

	result := &Result{Library: lib}
	var invalid []error
	for name, spec := range root.Classes.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if name == schema.GlobalClassName || name == schema.TypedClassName || spec.Specifier != schema.SpecifierClass {
			continue
		}
		invalid = append(invalid, validateFields(name, spec)...)

		cls, err := b.buildClass(stage, lib, name, spec, rep)
		if err != nil {
			return nil, err
		}
		result.Classes = append(result.Classes, cls)
	}
	if len(invalid) > 0 {
		return nil, invalidFieldsError(invalid)
	}
	return result, nil
}

func (b *Builder) buildClass(stage schema.Stage, lib Library, name string, spec *schema.ClassSpec, rep *report.Report) (*ClassModel, error) {
	if spec.TypeName != "" && spec.TypeName != name {
		return nil, &SchemaError{
			Class:   name,
			Message: fmt.Sprintf("every instantiable class's name must match its declared type (%q and %q do not match)", spec.TypeName, name),
		}
	}

	data := schema.CloneData(spec.CustomData)
	cls := &ClassModel{
		SchemaTypeName: name,
		CustomData:     data,
		ExtraImports:   stringList(data["extraImports"]),
	}
	cls.ClassName, cls.GeneratedClassName, cls.BaseFileName = b.extractNames(name, data, lib.Prefix)
	if extra, ok := data["extraPlugInfo"].(map[string]any); ok {
		cls.ExtraPlugInfo = extra
	}

	inherits, err := stage.Inherits(name)
	if err != nil {
		return nil, fmt.Errorf("model builder: %s: %w", name, err)
	}
	cls.Inherits = inherits
	if err := b.resolveParent(stage, cls); err != nil {
		return nil, err
	}
	if len(inherits) > 1 {
		rep.Warnf(name, "multiple inherits %v; only %q is used as the generated parent", inherits, cls.ParentClassName)
	}

	cls.TypeName = spec.TypeName
	for _, inherit := range inherits {
		if _, parent, ok := stage.DefiningSpec(inherit); ok && parent.TypeName == cls.TypeName {
			cls.TypeName = ""
		}
	}
	cls.IsConcrete = cls.TypeName != ""

	if !spec.HasDocumentation {
		rep.Warnf(name, "no documentation authored for class")
	}
	cls.Documentation = naming.SanitizeDoc(spec.Documentation, b.opts.DocLeader)

	props, err := stage.Properties(name)
	if err != nil {
		return nil, fmt.Errorf("model builder: %s: %w", name, err)
	}
	apiNames := map[schema.PropertyKind]map[string]struct{}{
		schema.KindAttribute:    {},
		schema.KindRelationship: {},
	}
	for _, prop := range props {
		if err := b.addProperty(cls, prop, apiNames, rep); err != nil {
			return nil, err
		}
	}
	return cls, nil
}

// extractNames derives the display, generated and file names of a class.
func (b *Builder) extractNames(pathName string, data map[string]any, prefix string) (className, generated, baseFile string) {
	className, ok := stringData(data, "className")
	if !ok {
		className = b.opts.ClassName(pathName)
	}
	baseFile, ok = stringData(data, "fileName")
	if !ok {
		baseFile = naming.CamelCase(className)
	}
	return className, prefix + className, baseFile
}

func (b *Builder) resolveParent(stage schema.Stage, cls *ClassModel) error {
	parent := schema.SchemaBaseName
	if len(cls.Inherits) > 0 {
		parent = cls.Inherits[0]
	}
	cls.ParentClassName = parent

	if parent == schema.SchemaBaseName {
		// SchemaBase is never authored; it belongs to the weakest layer.
		stack := stage.LayerStack()
		lib, err := LibraryFromLayer(stack[len(stack)-1])
		if err != nil {
			return err
		}
		cls.ParentGeneratedClassName = SchemaBaseGeneratedName
		cls.ParentBaseFileName = SchemaBaseFileName
		cls.ParentLibraryPath = lib.Path
		return nil
	}

	layer, spec, ok := stage.DefiningSpec(parent)
	if !ok {
		return &SchemaError{Class: cls.SchemaTypeName, Message: fmt.Sprintf("could not find the defining layer for parent %q", parent)}
	}
	lib, err := LibraryFromLayer(layer)
	if err != nil {
		return err
	}
	_, cls.ParentGeneratedClassName, cls.ParentBaseFileName = b.extractNames(parent, spec.CustomData, lib.Prefix)
	cls.ParentLibraryPath = lib.Path
	return nil
}

func (b *Builder) addProperty(cls *ClassModel, prop schema.Property, apiNames map[schema.PropertyKind]map[string]struct{}, rep *report.Report) error {
	class := cls.SchemaTypeName
	subject := class + "." + prop.PropertyName()

	var target *schema.OrderedMap[*PropertySet]
	switch prop.(type) {
	case *schema.AttributeProperty:
		target = &cls.Attrs
	case *schema.RelationshipProperty:
		target = &cls.Rels
	default:
		rep.Errorf(subject, "property kind cannot be resolved; skipped")
		return nil
	}

	stack := prop.Stack()
	if len(stack) == 0 {
		rep.Warnf(subject, "property has no authored opinion and is only known to the registry; skipped")
		return nil
	}
	definer, spec := definingOpinion(stack)
	if spec == nil {
		rep.Warnf(subject, "property has only override opinions; it may have been renamed or removed upstream")
		definer, spec = class, stack[0].Spec
	}

	model, err := b.propertyModel(definer, prop, spec, rep)
	if err != nil {
		return err
	}

	if definer != class {
		if err := addToBucket(target, definer, model); err != nil {
			rep.Warnf(subject, "normalized name %q collides with another property inherited from %s; skipped", model.Name, definer)
		}
		return nil
	}

	if !spec.HasDocumentation {
		rep.Warnf(subject, "no documentation authored for property")
	}
	noun := "attribute"
	if model.Kind == schema.KindRelationship {
		noun = "relationship"
	}
	if err := addToBucket(target, class, model); err != nil {
		if !errors.Is(err, schema.ErrDuplicateKey) {
			return err
		}
		return &SchemaError{
			Class:    class,
			Property: model.Name,
			Message:  fmt.Sprintf("schema %s names must be unique, irrespective of namespacing", noun),
		}
	}
	if model.APIName != "" {
		seen := apiNames[model.Kind]
		if _, dup := seen[model.APIName]; dup {
			return &SchemaError{
				Class:    class,
				Property: model.APIName,
				Message:  fmt.Sprintf("schema %s API names must be unique", noun),
			}
		}
		seen[model.APIName] = struct{}{}
	}
	return nil
}

// definingOpinion returns the strongest opinion whose class spec declares
// rather than overrides.
func definingOpinion(stack []schema.Opinion) (string, *schema.PropertySpec) {
	for _, op := range stack {
		if op.Specifier.Defines() {
			return op.Class, op.Spec
		}
	}
	return "", nil
}

func (b *Builder) propertyModel(definer string, prop schema.Property, spec *schema.PropertySpec, rep *report.Report) (*PropertyModel, error) {
	raw := prop.PropertyName()
	subject := definer + "." + raw
	data := spec.CustomData

	model := &PropertyModel{
		Name:          naming.CamelCase(raw),
		RawName:       raw,
		Kind:          spec.Kind,
		DefiningClass: definer,
		IsCustom:      spec.Custom || prop.IsCustom(),
		APIGet:        APIGetGenerated,
	}
	model.APIName = model.Name
	if v, ok := data["apiName"]; ok {
		s, _ := v.(string)
		model.APIName = s
	}
	if v, ok := stringData(data, "apiGetImplementation"); ok {
		switch v {
		case APIGetGenerated, APIGetCustom:
			model.APIGet = v
		default:
			rep.Errorf(subject, "apiGetImplementation must be %q or %q, got %q", APIGetGenerated, APIGetCustom, v)
		}
	}

	doc := spec.Documentation
	if !spec.HasDocumentation {
		doc, _ = prop.Doc()
	}
	model.Documentation = naming.SanitizeDoc(doc, b.opts.DocLeader)

	attr, ok := prop.(*schema.AttributeProperty)
	if !ok {
		model.Kind = schema.KindRelationship
		return model, nil
	}
	model.Kind = schema.KindAttribute

	typeName := spec.TypeName
	if typeName == "" {
		typeName = attr.TypeName
	}
	vt, known := schema.LookupValueType(typeName)
	if !known {
		return nil, &SchemaError{Class: definer, Property: raw, Message: fmt.Sprintf("unknown value type %q", typeName)}
	}
	model.ValueType = vt.Name
	model.GoType = vt.GoType

	model.Variability = spec.Variability
	if model.Variability == "" {
		model.Variability = attr.Variability
	}
	if model.Variability == "" {
		model.Variability = schema.Varying
	}

	switch {
	case spec.HasDefault:
		model.Fallback, model.HasFallback = spec.Default, true
	case attr.HasDefault:
		model.Fallback, model.HasFallback = attr.Default, true
	}
	model.AllowedTokens = spec.AllowedTokens
	if len(model.AllowedTokens) == 0 {
		model.AllowedTokens = attr.AllowedTokens
	}

	fallback := "No Fallback"
	if model.HasFallback {
		fallback = FormatValue(model.Fallback)
	}
	model.Details = []Detail{
		{Label: "Go Type", Value: model.GoType},
		{Label: "Schema Type", Value: model.ValueType},
		{Label: "Variability", Value: string(model.Variability)},
		{Label: "Fallback Value", Value: fallback},
	}
	if len(model.AllowedTokens) > 0 {
		model.Details = append(model.Details, Detail{Label: "Allowed Values", Value: "[" + strings.Join(model.AllowedTokens, ", ") + "]"})
	}
	return model, nil
}

// FormatValue renders a fallback value for documentation.
func FormatValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case []any:
		parts := make([]string, len(tv))
		for i, item := range tv {
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(tv)
	}
}

// LibraryFromLayer reads the library metadata from the GLOBAL class of layer.
func LibraryFromLayer(layer *schema.Layer) (Library, error) {
	global, ok := layer.Global()
	if !ok || len(global.CustomData) == 0 {
		return Library{}, fmt.Errorf("%w (layer %s)", errGlobalMissing, layer.Identifier)
	}
	data := global.CustomData

	lib := Library{UseExportAPI: true}
	if lib.Name, ok = stringData(data, "libraryName"); !ok {
		return Library{}, fmt.Errorf("%w (layer %s)", errLibraryNameMissing, layer.Identifier)
	}
	if lib.Path, ok = stringData(data, "libraryPath"); !ok {
		return Library{}, fmt.Errorf("%w (layer %s)", errLibraryPathMissing, layer.Identifier)
	}
	if lib.Prefix, ok = stringData(data, "libraryPrefix"); !ok {
		lib.Prefix = naming.ProperCase(lib.Name)
	}
	if lib.TokensPrefix, ok = stringData(data, "tokensPrefix"); !ok {
		lib.TokensPrefix = lib.Prefix
	}
	if v, ok := data["useExportAPI"].(bool); ok {
		lib.UseExportAPI = v
	}
	if v, ok := data["skipCodeGeneration"].(bool); ok {
		lib.SkipCodeGeneration = v
	}

	tokens, _ := data["libraryTokens"].(map[string]any)
	for _, id := range schema.SortedKeys(tokens) {
		token := LibraryToken{ID: id, Value: id}
		if info, ok := tokens[id].(map[string]any); ok {
			if v, ok := stringData(info, "value"); ok {
				token.Value = v
			}
			token.Doc, _ = stringData(info, "doc")
		}
		lib.Tokens = append(lib.Tokens, token)
	}
	return lib, nil
}

func stringData(data map[string]any, key string) (string, bool) {
	v, ok := data[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func stringList(v any) []string {
	switch tv := v.(type) {
	case []string:
		return append([]string(nil), tv...)
	case []any:
		out := make([]string, 0, len(tv))
		for _, item := range tv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{tv}
	default:
		return nil
	}
}
