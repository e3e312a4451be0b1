package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemagen/pkg/model"
	"github.com/goliatone/go-schemagen/pkg/orchestrator"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

func presetResult() *model.Result {
	cls := &model.ClassModel{SchemaTypeName: "Base", ClassName: "Base", Documentation: "Old doc."}
	attrs := schema.NewOrderedMap[*model.PropertyModel]()
	attrs.Set("count", &model.PropertyModel{Name: "count", RawName: "count", Kind: schema.KindAttribute, Documentation: "Count."})
	attrs.Set("primvarsDisplayColor", &model.PropertyModel{Name: "primvarsDisplayColor", RawName: "primvars:displayColor", Kind: schema.KindAttribute})
	cls.Attrs.Set("Base", attrs)
	rels := schema.NewOrderedMap[*model.PropertyModel]()
	rels.Set("target", &model.PropertyModel{Name: "target", RawName: "target", Kind: schema.KindRelationship})
	cls.Rels.Set("Base", rels)
	return &model.Result{Classes: []*model.ClassModel{cls}}
}

func TestJSONPresetTransformer_Transform(t *testing.T) {
	transformer, err := orchestrator.NewJSONPresetTransformer([]byte(`{
  "classes": {
    "Base": {
      "documentation": "New doc.",
      "extraImports": ["fmt", " fmt ", "strings"],
      "extraPlugInfo": {"implementsComputeExtent": true},
      "properties": {
        "count": {"documentation": "How many."},
        "primvars:displayColor": {"documentation": "Display color."},
        "target": {"documentation": "Pointed at."}
      }
    }
  }
}`))
	if err != nil {
		t.Fatalf("new transformer: %v", err)
	}

	result := presetResult()
	if err := transformer.Transform(context.Background(), result); err != nil {
		t.Fatalf("transform: %v", err)
	}

	cls := result.Classes[0]
	if cls.Documentation != "New doc." {
		t.Fatalf("class doc = %q", cls.Documentation)
	}
	if diff := cmp.Diff([]string{"fmt", "strings"}, cls.ExtraImports); diff != "" {
		t.Fatalf("extra imports mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"implementsComputeExtent": true}, cls.ExtraPlugInfo); diff != "" {
		t.Fatalf("extra plugInfo mismatch (-want +got):\n%s", diff)
	}

	got := map[string]string{}
	for _, prop := range append(cls.OwnAttrs(), cls.OwnRels()...) {
		got[prop.Name] = prop.Documentation
	}
	want := map[string]string{
		"count":                "How many.",
		"primvarsDisplayColor": "Display color.",
		"target":               "Pointed at.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("property docs mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONPresetTransformer_EmptyPatchKeepsValues(t *testing.T) {
	transformer, err := orchestrator.NewJSONPresetTransformer([]byte(`{"classes":{"Base":{}}}`))
	if err != nil {
		t.Fatalf("new transformer: %v", err)
	}
	result := presetResult()
	if err := transformer.Transform(context.Background(), result); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if doc := result.Classes[0].Documentation; doc != "Old doc." {
		t.Fatalf("class doc changed to %q", doc)
	}
}

func TestJSONPresetTransformer_Errors(t *testing.T) {
	cases := map[string]struct {
		document string
		want     string
	}{
		"unknown class":    {`{"classes":{"Missing":{}}}`, `class "Missing" not found`},
		"unknown property": {`{"classes":{"Base":{"properties":{"nope":{}}}}}`, `property "nope" not found`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			transformer, err := orchestrator.NewJSONPresetTransformer([]byte(tc.document))
			if err != nil {
				t.Fatalf("new transformer: %v", err)
			}
			err = transformer.Transform(context.Background(), presetResult())
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestJSONPresetTransformer_InvalidDocuments(t *testing.T) {
	for name, data := range map[string]string{
		"empty":     "  \n",
		"malformed": `{"classes":`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := orchestrator.NewJSONPresetTransformer([]byte(data)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestJSONPresetTransformer_Canceled(t *testing.T) {
	transformer, err := orchestrator.NewJSONPresetTransformer([]byte(`{"classes":{"Base":{}}}`))
	if err != nil {
		t.Fatalf("new transformer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := transformer.Transform(ctx, presetResult()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewJSONPresetTransformerFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"presets/base.json": {Data: []byte(`{"classes":{"Base":{"documentation":"From fs."}}}`)},
	}

	transformer, err := orchestrator.NewJSONPresetTransformerFromFS(fsys, "presets/base.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	result := presetResult()
	if err := transformer.Transform(context.Background(), result); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if doc := result.Classes[0].Documentation; doc != "From fs." {
		t.Fatalf("class doc = %q", doc)
	}

	if _, err := orchestrator.NewJSONPresetTransformerFromFS(fsys, "presets/missing.json"); err == nil {
		t.Fatalf("expected a read error")
	}
	if _, err := orchestrator.NewJSONPresetTransformerFromFS(nil, "presets/base.json"); err == nil {
		t.Fatalf("expected an error for a nil filesystem")
	}
	if _, err := orchestrator.NewJSONPresetTransformerFromFS(fsys, " "); err == nil {
		t.Fatalf("expected an error for an empty path")
	}
}

func TestTransformerFunc_Nil(t *testing.T) {
	var fn orchestrator.TransformerFunc
	if err := fn.Transform(context.Background(), &model.Result{}); err != nil {
		t.Fatalf("nil func: %v", err)
	}
}
