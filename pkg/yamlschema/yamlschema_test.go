package yamlschema

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

const sample = `
comment: hand written
subLayers: [core.yaml]
classes:
  GLOBAL:
    customData:
      libraryName: shapes
      libraryPath: example.com/shapes
      libraryTokens:
        left: {doc: Left handed.}
  Mesh:
    typeName: Mesh
    inherits: [/Typed]
    doc: |
      A polygonal mesh.
        Indented second line.
    properties:
      points:
        type: float3[]
        doc: Vertex positions.
      orientation:
        type: token
        variability: uniform
        default: rightHanded
        allowedTokens: [rightHanded, leftHanded]
      faceCount:
        type: int
        default: 4
        customData:
          apiName: numFaces
      material:
        kind: relationship
`

func decodeSample(t *testing.T, raw string) *schema.Layer {
	t.Helper()
	doc := schema.MustNewDocument(schema.SourceFromFS("schema.yaml"), []byte(raw))
	layer, err := New().Decode(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return layer
}

func TestDecode_PreservesOrderAndTypes(t *testing.T) {
	layer := decodeSample(t, sample)

	if layer.Comment != "hand written" {
		t.Fatalf("unexpected comment %q", layer.Comment)
	}
	if diff := cmp.Diff([]string{"core.yaml"}, layer.SubLayers); diff != "" {
		t.Fatalf("sublayers mismatch (-want +got):\n%s", diff)
	}

	global, ok := layer.Global()
	if !ok || global.Specifier != schema.SpecifierOver {
		t.Fatalf("expected GLOBAL to default to an over, got %+v", global)
	}

	mesh, ok := layer.Class("Mesh")
	if !ok {
		t.Fatalf("expected Mesh class")
	}
	if mesh.Specifier != schema.SpecifierClass {
		t.Fatalf("expected class specifier by default, got %q", mesh.Specifier)
	}
	if diff := cmp.Diff([]string{"Typed"}, mesh.Inherits); diff != "" {
		t.Fatalf("inherits mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"points", "orientation", "faceCount", "material"}, mesh.Properties.Keys()); diff != "" {
		t.Fatalf("property order mismatch (-want +got):\n%s", diff)
	}

	faceCount, _ := mesh.Property("faceCount")
	if faceCount.Default != int64(4) {
		t.Fatalf("expected int default coerced to int64, got %T %v", faceCount.Default, faceCount.Default)
	}
	if faceCount.CustomData["apiName"] != "numFaces" {
		t.Fatalf("expected apiName custom data, got %v", faceCount.CustomData)
	}
	material, _ := mesh.Property("material")
	if material.Kind != schema.KindRelationship {
		t.Fatalf("expected relationship kind, got %q", material.Kind)
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	raw := "classes:\n  Mesh:\n    typo: true\n"
	doc := schema.MustNewDocument(schema.SourceFromFS("bad.yaml"), []byte(raw))
	_, err := New().Decode(doc)

	var decodeErr *schema.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Line != 3 || !strings.Contains(decodeErr.Message, "typo") {
		t.Fatalf("unexpected error %+v", decodeErr)
	}
}

func TestDecode_RejectsBadDefault(t *testing.T) {
	raw := "classes:\n  Mesh:\n    properties:\n      count:\n        type: int\n        default: lots\n"
	doc := schema.MustNewDocument(schema.SourceFromFS("bad.yaml"), []byte(raw))
	if _, err := New().Decode(doc); err == nil {
		t.Fatalf("expected a string default on an int attribute to fail")
	}
}

func TestEncode_RoundTripKeepsOrder(t *testing.T) {
	layer := decodeSample(t, sample)

	raw, err := New().Encode(layer)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again := decodeSample(t, string(raw))

	mesh, _ := again.Class("Mesh")
	if diff := cmp.Diff([]string{"points", "orientation", "faceCount", "material"}, mesh.Properties.Keys()); diff != "" {
		t.Fatalf("property order lost (-want +got):\n%s", diff)
	}
	if !strings.Contains(mesh.Documentation, "\n  Indented second line.") {
		t.Fatalf("expected documentation to survive verbatim, got %q", mesh.Documentation)
	}

	// Encoding is deterministic, which the idempotent writer relies on.
	second, err := New().Encode(again)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != string(second) {
		t.Fatalf("encoding is not stable:\n%s\n---\n%s", raw, second)
	}
}
