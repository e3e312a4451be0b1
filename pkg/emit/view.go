package emit

import (
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/goliatone/go-schemagen/internal/naming"
	"github.com/goliatone/go-schemagen/pkg/model"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

// The view types below are what templates see. Templates receive data through
// a JSON round trip, so every literal is pre-spelled as a string and every
// ordered collection is a slice.

type libraryView struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Package      string `json:"package"`
	Prefix       string `json:"prefix"`
	TokensPrefix string `json:"tokensPrefix"`
	UseExportAPI bool   `json:"useExportAPI"`
}

type tokenView struct {
	ID          string `json:"id"`
	Field       string `json:"field"`
	Literal     string `json:"literal"`
	Description string `json:"description"`
}

type inheritedView struct {
	Class string   `json:"class"`
	Names []string `json:"names"`
}

type propertyView struct {
	Name             string         `json:"name"`
	APIName          string         `json:"apiName"`
	Accessor         string         `json:"accessor"`
	RawName          string         `json:"rawName"`
	TokenRef         string         `json:"tokenRef"`
	AllowedTokenRefs []string       `json:"allowedTokenRefs,omitempty"`
	Documentation    string         `json:"documentation"`
	ValueType        string         `json:"valueType,omitempty"`
	GoType           string         `json:"goType,omitempty"`
	VariabilityConst string         `json:"variabilityConst,omitempty"`
	FallbackLiteral  string         `json:"fallbackLiteral,omitempty"`
	Details          []model.Detail `json:"details,omitempty"`
	Custom           bool           `json:"custom"`
	GenerateGetter   bool           `json:"generateGetter"`
}

type classView struct {
	SchemaTypeName           string          `json:"schemaTypeName"`
	ClassName                string          `json:"className"`
	GeneratedClassName       string          `json:"generatedClassName"`
	BaseFileName             string          `json:"baseFileName"`
	Documentation            string          `json:"documentation"`
	ParentRef                string          `json:"parentRef"`
	ParentGeneratedClassName string          `json:"parentGeneratedClassName"`
	TypeName                 string          `json:"typeName"`
	IsConcrete               bool            `json:"isConcrete"`
	Imports                  []string        `json:"imports"`
	Attrs                    []propertyView  `json:"attrs"`
	Rels                     []propertyView  `json:"rels"`
	Inherited                []inheritedView `json:"inherited"`
	Tokens                   []string        `json:"tokens"`
	HasTokenAttrs            bool            `json:"hasTokenAttrs"`
}

// PackageName derives a Go package name from a library path: the last path
// segment, lower-cased, reduced to letters, digits and underscores.
func PackageName(libraryPath string) string {
	base := path.Base(strings.TrimRight(strings.ReplaceAll(libraryPath, "\\", "/"), "/"))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || name == "." {
		return "schema"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "lib" + name
	}
	return naming.SanitizeIdentifier(name)
}

func newLibraryView(lib model.Library, pkg string) libraryView {
	if pkg == "" {
		pkg = PackageName(lib.Path)
	}
	return libraryView{
		Name:         lib.Name,
		Path:         lib.Path,
		Package:      pkg,
		Prefix:       lib.Prefix,
		TokensPrefix: lib.TokensPrefix,
		UseExportAPI: lib.UseExportAPI,
	}
}

// tokenField is the exported struct field a token id is emitted as.
func tokenField(id string) string {
	return naming.ProperCase(id)
}

func newTokenViews(table *model.TokenTable) ([]tokenView, error) {
	if table == nil {
		return []tokenView{}, nil
	}
	entries := table.Sorted()
	views := make([]tokenView, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		field := tokenField(entry.ID)
		if other, ok := seen[field]; ok {
			return nil, fmt.Errorf("emit: tokens %q and %q both map to field %s", other, entry.ID, field)
		}
		seen[field] = entry.ID
		views = append(views, tokenView{
			ID:          entry.ID,
			Field:       field,
			Literal:     strconv.Quote(entry.Value),
			Description: entry.Description,
		})
	}
	return views, nil
}

func tokenRef(lib libraryView, id string) string {
	return lib.TokensPrefix + "Tokens." + tokenField(naming.SanitizeIdentifier(id))
}

func newClassView(cls *model.ClassModel, lib libraryView) (classView, error) {
	view := classView{
		SchemaTypeName:           cls.SchemaTypeName,
		ClassName:                cls.ClassName,
		GeneratedClassName:       cls.GeneratedClassName,
		BaseFileName:             cls.BaseFileName,
		Documentation:            cls.Documentation,
		ParentGeneratedClassName: cls.ParentGeneratedClassName,
		TypeName:                 cls.TypeName,
		IsConcrete:               cls.IsConcrete,
		Tokens:                   cls.Tokens(),
		HasTokenAttrs:            cls.HasTokenAttrs(),
		Attrs:                    []propertyView{},
		Rels:                     []propertyView{},
	}

	imports := append([]string{}, cls.ExtraImports...)
	switch {
	case cls.ParentGeneratedClassName == model.SchemaBaseGeneratedName:
		view.ParentRef = model.SchemaBaseGeneratedName
	case cls.ParentLibraryPath != "" && cls.ParentLibraryPath != lib.Path:
		view.ParentRef = PackageName(cls.ParentLibraryPath) + "." + cls.ParentGeneratedClassName
		imports = append(imports, cls.ParentLibraryPath)
	default:
		view.ParentRef = cls.ParentGeneratedClassName
	}
	slices.Sort(imports)
	view.Imports = slices.Compact(imports)

	for _, attr := range cls.OwnAttrs() {
		pv, err := newPropertyView(cls, attr, lib)
		if err != nil {
			return classView{}, err
		}
		view.Attrs = append(view.Attrs, pv)
	}
	for _, rel := range cls.OwnRels() {
		pv, err := newPropertyView(cls, rel, lib)
		if err != nil {
			return classView{}, err
		}
		view.Rels = append(view.Rels, pv)
	}
	view.Inherited = inheritedViews(cls)
	return view, nil
}

func inheritedViews(cls *model.ClassModel) []inheritedView {
	out := []inheritedView{}
	index := map[string]int{}
	collect := func(buckets *schema.OrderedMap[*model.PropertySet]) {
		for class, set := range buckets.All() {
			if class == cls.SchemaTypeName {
				continue
			}
			i, ok := index[class]
			if !ok {
				i = len(out)
				index[class] = i
				out = append(out, inheritedView{Class: class})
			}
			out[i].Names = append(out[i].Names, set.Keys()...)
		}
	}
	collect(&cls.Attrs)
	collect(&cls.Rels)
	return out
}

func newPropertyView(cls *model.ClassModel, prop *model.PropertyModel, lib libraryView) (propertyView, error) {
	view := propertyView{
		Name:           prop.Name,
		APIName:        prop.APIName,
		RawName:        prop.RawName,
		TokenRef:       tokenRef(lib, prop.Name),
		Documentation:  prop.Documentation,
		Details:        prop.Details,
		Custom:         prop.IsCustom,
		GenerateGetter: prop.APIName != "" && prop.APIGet != model.APIGetCustom,
	}
	suffix := "Rel"
	if prop.IsAttribute() {
		suffix = "Attr"
		view.ValueType = prop.ValueType
		view.GoType = prop.GoType
		view.VariabilityConst = "Varying"
		if prop.Variability == schema.Uniform {
			view.VariabilityConst = "Uniform"
		}
		fallback := any(nil)
		if prop.HasFallback {
			fallback = prop.Fallback
		}
		literal, err := GoLiteral(prop.GoType, fallback)
		if err != nil {
			return propertyView{}, fmt.Errorf("emit: %s.%s: %w", cls.SchemaTypeName, prop.Name, err)
		}
		view.FallbackLiteral = literal
		for _, value := range prop.AllowedTokens {
			ref := `""`
			if value != "" {
				ref = tokenRef(lib, naming.CamelCase(value))
			}
			view.AllowedTokenRefs = append(view.AllowedTokenRefs, ref)
		}
	}
	if prop.APIName != "" {
		view.Accessor = "Get" + naming.ProperCase(prop.APIName) + suffix
	}
	return view, nil
}
