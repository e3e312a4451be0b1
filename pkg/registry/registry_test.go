package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemagen/pkg/compose"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
	"github.com/goliatone/go-schemagen/pkg/yamlschema"
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

const shapesLayer = `
subLayers: [core.yaml]
classes:
  GLOBAL:
    customData:
      libraryName: shapes
      libraryPath: example.com/shapes
  Base:
    typeName: Base
    inherits: [/Typed]
    doc: '\em Big \li one \ref Other see <b>bold</b>.'
    customData:
      className: Basic
    properties:
      count:
        type: int
        default: 0
        doc: Number of things.
        customData:
          apiName: total
  Derived:
    typeName: Derived
    inherits: [/Base]
    properties:
      label:
        type: string
        doc: Display label.
`

func openStage(t *testing.T, options ...compose.Option) *compose.Stage {
	t.Helper()
	files := fstest.MapFS{
		"core.yaml":   {Data: []byte(coreLayer)},
		"schema.yaml": {Data: []byte(shapesLayer)},
	}
	options = append([]compose.Option{compose.WithFS(files)}, options...)
	stage, err := compose.Open(context.Background(), schema.SourceFromFS("schema.yaml"), options...)
	if err != nil {
		t.Fatalf("open stage: %v", err)
	}
	return stage
}

func TestMangleRoundTrip(t *testing.T) {
	for _, name := range []string{"Base", "", "Mesh_2", manglePrefix} {
		if got := demangle(mangle(name)); got != strings.ReplaceAll(name, manglePrefix, "") {
			t.Fatalf("round trip of %q gave %q", name, got)
		}
	}
	if mangle("Base") == "Base" {
		t.Fatalf("mangle must change the name")
	}
}

func TestFlatten_Registry(t *testing.T) {
	stage := openStage(t)
	rep := report.New()
	flat, err := New(Options{}).Flatten(context.Background(), stage, []string{"Base", "Derived"}, rep)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}

	if diff := cmp.Diff([]string{"Base", "Derived"}, flat.Classes.Keys()); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}
	if flat.Comment != GeneratedComment {
		t.Fatalf("unexpected comment %q", flat.Comment)
	}
	if len(rep.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rep.Diagnostics)
	}

	base, _ := flat.Class("Base")
	if base.TypeName != "Base" || base.CustomData != nil {
		t.Fatalf("unexpected base: %+v", base)
	}
	if base.Documentation != "Big - one see <b>bold</b>." {
		t.Fatalf("markup not scrubbed: %q", base.Documentation)
	}
	count, _ := base.Property("count")
	if count.CustomData != nil {
		t.Fatalf("property custom data must be cleared: %v", count.CustomData)
	}

	derived, _ := flat.Class("Derived")
	if derived.HasDocumentation {
		t.Fatalf("Derived authored no documentation, got %q", derived.Documentation)
	}
	if diff := cmp.Diff([]string{"count", "label"}, derived.Properties.Keys()); diff != "" {
		t.Fatalf("derived properties mismatch (-want +got):\n%s", diff)
	}

	if stage.SessionLayer().Classes.Len() != 0 {
		t.Fatalf("session edits must be removed, found %v", stage.SessionLayer().Classes.Keys())
	}
	src, _ := stage.RootLayer().Class("Base")
	if src.CustomData == nil || src.TypeName != "Base" {
		t.Fatalf("source layer was modified: %+v", src)
	}
}

func TestFlatten_StripHTML(t *testing.T) {
	flat, err := New(Options{StripHTML: true}).Flatten(context.Background(), openStage(t), []string{"Base"}, report.New())
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	base, _ := flat.Class("Base")
	if base.Documentation != "Big - one see bold." {
		t.Fatalf("html not stripped: %q", base.Documentation)
	}
}

func TestFlatten_IgnoresBuiltinDefinitions(t *testing.T) {
	builtin := schema.NewLayer("registered")
	registered := &schema.ClassSpec{Name: "Base", Specifier: schema.SpecifierClass, TypeName: "Base"}
	registered.Properties.Set("count", &schema.PropertySpec{
		Name:        "count",
		Kind:        schema.KindAttribute,
		TypeName:    "float",
		Variability: schema.Uniform,
	})
	builtin.Classes.Set("Base", registered)

	stage := openStage(t, compose.WithBuiltins(builtin))
	cc, err := stage.Class("Base")
	if err != nil {
		t.Fatalf("class: %v", err)
	}
	if cc.Properties[0].(*schema.AttributeProperty).TypeName != "float" {
		t.Fatalf("expected the builtin to shadow the composed stage")
	}

	flat, err := New(Options{}).Flatten(context.Background(), stage, []string{"Base"}, report.New())
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	base, _ := flat.Class("Base")
	count, _ := base.Property("count")
	if count.TypeName != "int" || count.Variability != schema.Varying {
		t.Fatalf("expected authored definition in registry, got %s/%s", count.TypeName, count.Variability)
	}
	if base.TypeName != "Base" {
		t.Fatalf("type name not restored: %q", base.TypeName)
	}
}

func TestWrite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	flattener := New(Options{})
	flat, err := flattener.Flatten(context.Background(), openStage(t), []string{"Base", "Derived"}, report.New())
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}

	first := report.New()
	if err := flattener.Write(context.Background(), path, flat, first); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got, _ := first.File(path); got.Status != report.StatusWrote {
		t.Fatalf("expected wrote, got %s", got.Status)
	}

	second := report.New()
	if err := flattener.Write(context.Background(), path, flat, second); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got, _ := second.File(path); got.Status != report.StatusUnchanged {
		t.Fatalf("expected unchanged, got %s", got.Status)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	decoded, err := yamlschema.New().Decode(schema.MustNewDocument(schema.SourceFromFile(path), data))
	if err != nil {
		t.Fatalf("registry does not decode: %v", err)
	}
	if decoded.Comment != GeneratedComment || decoded.Classes.Len() != 2 {
		t.Fatalf("unexpected decoded registry: %+v", decoded)
	}
}
