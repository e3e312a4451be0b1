package model_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemagen/pkg/compose"
	pkgmodel "github.com/goliatone/go-schemagen/pkg/model"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

const coreLayer = `
classes:
  GLOBAL:
    customData:
      libraryName: core
      libraryPath: example.com/core
  Typed:
    doc: The abstract root of every typed class.
`

const shapesHeader = `
subLayers: [core.yaml]
classes:
  GLOBAL:
    customData:
      libraryName: shapes
      libraryPath: example.com/shapes
`

const shapesClasses = `
  Base:
    typeName: Base
    inherits: [/Typed]
    doc: |-
      Base shape.
        Second line.
    properties:
      count:
        type: int
        default: 0
        doc: Number of things.
  Derived:
    typeName: Derived
    inherits: [/Base]
    properties:
      label:
        type: string
        doc: Display label.
      target:
        kind: relationship
        doc: Pointed at.
`

const shapesLayer = shapesHeader + shapesClasses

func buildLayers(t *testing.T, layers map[string]string) (*pkgmodel.Result, *report.Report, error) {
	t.Helper()
	files := fstest.MapFS{}
	for name, src := range layers {
		files[name] = &fstest.MapFile{Data: []byte(src)}
	}
	stage, err := compose.Open(context.Background(), schema.SourceFromFS("schema.yaml"), compose.WithFS(files))
	if err != nil {
		t.Fatalf("open stage: %v", err)
	}
	rep := report.New()
	result, err := pkgmodel.NewBuilder().Build(context.Background(), stage, rep)
	return result, rep, err
}

func mustBuild(t *testing.T, layers map[string]string) (*pkgmodel.Result, *report.Report) {
	t.Helper()
	result, rep, err := buildLayers(t, layers)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return result, rep
}

func withClasses(extra string) map[string]string {
	return map[string]string{
		"core.yaml":   coreLayer,
		"schema.yaml": shapesLayer + extra,
	}
}

func names(props []*pkgmodel.PropertyModel) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name
	}
	return out
}

func TestBuilder_BaseDerived(t *testing.T) {
	result, rep := mustBuild(t, withClasses(""))

	wantLib := pkgmodel.Library{
		Name:         "shapes",
		Path:         "example.com/shapes",
		Prefix:       "Shapes",
		TokensPrefix: "Shapes",
		UseExportAPI: true,
	}
	if diff := cmp.Diff(wantLib, result.Library); diff != "" {
		t.Fatalf("library mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Base", "Derived"}, result.ClassNames()); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}

	base, derived := result.Classes[0], result.Classes[1]
	if base.GeneratedClassName != "ShapesBase" || base.BaseFileName != "base" {
		t.Fatalf("unexpected base names: %s %s", base.GeneratedClassName, base.BaseFileName)
	}
	if base.ParentGeneratedClassName != "CoreTyped" || base.ParentBaseFileName != "typed" || base.ParentLibraryPath != "example.com/core" {
		t.Fatalf("unexpected base parent: %+v", base)
	}
	if !base.IsConcrete || base.Documentation != "Base shape.\nSecond line." {
		t.Fatalf("unexpected base metadata: concrete=%v doc=%q", base.IsConcrete, base.Documentation)
	}

	if derived.ParentClassName != "Base" || derived.ParentGeneratedClassName != "ShapesBase" || derived.ParentLibraryPath != "example.com/shapes" {
		t.Fatalf("unexpected derived parent: %+v", derived)
	}
	if diff := cmp.Diff([]string{"Base", "Derived"}, derived.Attrs.Keys()); diff != "" {
		t.Fatalf("attribute buckets mismatch (-want +got):\n%s", diff)
	}
	inherited, _ := derived.Attrs.Get("Base")
	if diff := cmp.Diff([]string{"count"}, inherited.Keys()); diff != "" {
		t.Fatalf("inherited bucket mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"label"}, names(derived.OwnAttrs())); diff != "" {
		t.Fatalf("own attributes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"target"}, names(derived.OwnRels())); diff != "" {
		t.Fatalf("own relationships mismatch (-want +got):\n%s", diff)
	}

	count := base.OwnAttrs()[0]
	want := &pkgmodel.PropertyModel{
		Name:          "count",
		APIName:       "count",
		RawName:       "count",
		Documentation: "Number of things.",
		Kind:          schema.KindAttribute,
		DefiningClass: "Base",
		APIGet:        pkgmodel.APIGetGenerated,
		ValueType:     "int",
		GoType:        "int32",
		Variability:   schema.Varying,
		Fallback:      int64(0),
		HasFallback:   true,
		Details: []pkgmodel.Detail{
			{Label: "Go Type", Value: "int32"},
			{Label: "Schema Type", Value: "int"},
			{Label: "Variability", Value: "varying"},
			{Label: "Fallback Value", Value: "0"},
		},
	}
	if diff := cmp.Diff(want, count); diff != "" {
		t.Fatalf("count mismatch (-want +got):\n%s", diff)
	}

	if len(rep.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", rep.Errors())
	}
	warnings := rep.Warnings()
	if len(warnings) != 1 || warnings[0].Subject != "Derived" {
		t.Fatalf("expected a single missing-doc warning for Derived, got %v", warnings)
	}
}

func TestBuilder_CustomNames(t *testing.T) {
	result, _ := mustBuild(t, withClasses(`
  Sphere:
    typeName: Sphere
    inherits: [/Base]
    doc: Round.
    customData:
      className: Ball
      fileName: ballShape
      extraImports: [math]
    properties:
      radius:
        type: double
        doc: Radius.
        customData:
          apiName: size
          apiGetImplementation: custom
`))

	sphere := result.Classes[2]
	if sphere.ClassName != "Ball" || sphere.GeneratedClassName != "ShapesBall" || sphere.BaseFileName != "ballShape" {
		t.Fatalf("unexpected names: %s %s %s", sphere.ClassName, sphere.GeneratedClassName, sphere.BaseFileName)
	}
	if diff := cmp.Diff([]string{"math"}, sphere.ExtraImports); diff != "" {
		t.Fatalf("extra imports mismatch (-want +got):\n%s", diff)
	}
	radius := sphere.OwnAttrs()[0]
	if radius.APIName != "size" || radius.APIGet != pkgmodel.APIGetCustom {
		t.Fatalf("unexpected radius naming: %+v", radius)
	}
}

func TestBuilder_AbstractClassIsNotConcrete(t *testing.T) {
	result, _ := mustBuild(t, withClasses(`
  Shape:
    inherits: [/Typed]
    doc: Abstract.
`))
	if result.Classes[2].IsConcrete {
		t.Fatalf("expected a class without type name to be abstract")
	}
}

func TestBuilder_NamingContract(t *testing.T) {
	_, _, err := buildLayers(t, withClasses(`
  Cube:
    typeName: Box
    doc: Mismatched.
`))
	var schemaErr *pkgmodel.SchemaError
	if !errors.As(err, &schemaErr) || schemaErr.Class != "Cube" {
		t.Fatalf("expected naming contract error for Cube, got %v", err)
	}
}

func TestBuilder_DuplicateNames(t *testing.T) {
	cases := map[string]string{
		"normalized name": `
  Dup:
    doc: Duplicate.
    properties:
      "a:b": {type: int, doc: One.}
      aB: {type: int, doc: Two.}
`,
		"api name": `
  Dup:
    doc: Duplicate.
    properties:
      first: {type: int, doc: One., customData: {apiName: same}}
      second: {type: int, doc: Two., customData: {apiName: same}}
`,
	}
	for name, extra := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := buildLayers(t, withClasses(extra))
			var schemaErr *pkgmodel.SchemaError
			if !errors.As(err, &schemaErr) || !strings.Contains(schemaErr.Message, "unique") {
				t.Fatalf("expected uniqueness error, got %v", err)
			}
		})
	}
}

func TestBuilder_EmptyAPINamesMayRepeat(t *testing.T) {
	_, _, err := buildLayers(t, withClasses(`
  Quiet:
    doc: No accessors.
    properties:
      first: {type: int, doc: One., customData: {apiName: ""}}
      second: {type: int, doc: Two., customData: {apiName: ""}}
`))
	if err != nil {
		t.Fatalf("expected empty api names to be exempt, got %v", err)
	}
}

func TestBuilder_OverOnlyPropertyWarns(t *testing.T) {
	core := coreLayer + `
  Derived:
    specifier: over
    properties:
      ghost: {type: float, doc: Left behind.}
`
	result, rep, err := buildLayers(t, map[string]string{"core.yaml": core, "schema.yaml": shapesLayer})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	derived := result.Classes[1]
	if diff := cmp.Diff([]string{"ghost", "label"}, names(derived.OwnAttrs())); diff != "" {
		t.Fatalf("expected ghost in the own bucket (-want +got):\n%s", diff)
	}
	found := false
	for _, w := range rep.Warnings() {
		if w.Subject == "Derived.ghost" && strings.Contains(w.Message, "renamed or removed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected override-only warning, got %v", rep.Warnings())
	}
}

func TestBuilder_MultipleInheritsWarn(t *testing.T) {
	result, rep := mustBuild(t, withClasses(`
  Mixed:
    typeName: Mixed
    inherits: [/Base, /Derived]
    doc: Two parents.
`))
	if result.Classes[2].ParentClassName != "Base" {
		t.Fatalf("expected the first inherit to win, got %s", result.Classes[2].ParentClassName)
	}
	found := false
	for _, w := range rep.Warnings() {
		if w.Subject == "Mixed" && strings.Contains(w.Message, "multiple inherits") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected multi-inherit warning, got %v", rep.Warnings())
	}
}

func TestBuilder_InvalidFields(t *testing.T) {
	_, _, err := buildLayers(t, withClasses(`
  Linked:
    doc: Bad.
    properties:
      rel: {kind: relationship, targets: [/Base], doc: Bad.}
      attr: {type: int, connections: [/Base.count], doc: Bad.}
`))
	if err == nil || !strings.Contains(err.Error(), "invalid fields") {
		t.Fatalf("expected invalid fields error, got %v", err)
	}
	var schemaErr *pkgmodel.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected joined schema errors, got %T", err)
	}
	if !strings.Contains(err.Error(), "Linked.attr") || !strings.Contains(err.Error(), "Linked.rel") {
		t.Fatalf("expected every offending property to be reported, got %v", err)
	}
}

func TestBuilder_UnknownValueType(t *testing.T) {
	_, _, err := buildLayers(t, withClasses(`
  Odd:
    doc: Odd.
    properties:
      weird: {type: quaternion, doc: Unknown.}
`))
	var schemaErr *pkgmodel.SchemaError
	if !errors.As(err, &schemaErr) || !strings.Contains(schemaErr.Message, "quaternion") {
		t.Fatalf("expected unknown value type error, got %v", err)
	}
}

func TestBuilder_InvalidAPIGetIsReported(t *testing.T) {
	result, rep := mustBuild(t, withClasses(`
  Getter:
    doc: Getter.
    properties:
      value: {type: int, doc: Value., customData: {apiGetImplementation: magic}}
`))
	if got := result.Classes[2].OwnAttrs()[0].APIGet; got != pkgmodel.APIGetGenerated {
		t.Fatalf("expected fallback to generated, got %q", got)
	}
	if len(rep.Errors()) != 1 || rep.Errors()[0].Subject != "Getter.value" {
		t.Fatalf("expected a reported error, got %v", rep.Errors())
	}
}

func TestBuilder_MissingLibraryMetadata(t *testing.T) {
	_, _, err := buildLayers(t, map[string]string{
		"schema.yaml": "classes:\n  GLOBAL:\n    customData:\n      libraryName: lonely\n",
	})
	if err == nil || !strings.Contains(err.Error(), "libraryPath") {
		t.Fatalf("expected missing libraryPath error, got %v", err)
	}
}
