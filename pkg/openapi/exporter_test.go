package openapi_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemagen/pkg/openapi"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

func registryLayer() *schema.Layer {
	layer := schema.NewLayer("generatedSchema.yaml")
	cls := &schema.ClassSpec{Name: "Switch", Specifier: schema.SpecifierClass, TypeName: "Switch"}
	cls.SetDocumentation("A switch.")

	mode := &schema.PropertySpec{
		Name:          "mode",
		Kind:          schema.KindAttribute,
		TypeName:      "token",
		Variability:   schema.Uniform,
		Default:       "off",
		HasDefault:    true,
		AllowedTokens: []string{"on", "off"},
	}
	mode.SetDocumentation("Current mode.")
	cls.Properties.Set("mode", mode)
	cls.Properties.Set("count", &schema.PropertySpec{
		Name: "count", Kind: schema.KindAttribute, TypeName: "int", Default: int64(2), HasDefault: true,
	})
	cls.Properties.Set("color", &schema.PropertySpec{
		Name: "color", Kind: schema.KindAttribute, TypeName: "color3f", Default: []any{1.0, 0.5, 0.0}, HasDefault: true,
	})
	cls.Properties.Set("owner", &schema.PropertySpec{Name: "owner", Kind: schema.KindRelationship})
	layer.Classes.Set("Switch", cls)
	return layer
}

func TestRender_ComponentsDocument(t *testing.T) {
	data, err := openapi.New(openapi.Options{}).Render(context.Background(), registryLayer(), "lights")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Components struct {
			Schemas map[string]struct {
				Type        string                    `json:"type"`
				Description string                    `json:"description"`
				SchemaType  string                    `json:"x-schema-type"`
				Properties  map[string]map[string]any `json:"properties"`
			} `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v\n%s", err, data)
	}
	if doc.Info.Title != "lights" || doc.Info.Version != openapi.DefaultVersion {
		t.Fatalf("unexpected info: %+v", doc.Info)
	}

	sw := doc.Components.Schemas["Switch"]
	if sw.Type != "object" || sw.Description != "A switch." || sw.SchemaType != "Switch" {
		t.Fatalf("unexpected class schema: %+v", sw)
	}
	wantMode := map[string]any{
		"type":          "string",
		"description":   "Current mode.",
		"default":       "off",
		"enum":          []any{"on", "off"},
		"x-variability": "uniform",
	}
	if diff := cmp.Diff(wantMode, sw.Properties["mode"]); diff != "" {
		t.Fatalf("mode mismatch (-want +got):\n%s", diff)
	}
	if sw.Properties["count"]["default"] != float64(2) || sw.Properties["count"]["type"] != "integer" {
		t.Fatalf("unexpected count: %v", sw.Properties["count"])
	}
	if sw.Properties["color"]["maxItems"] != float64(3) {
		t.Fatalf("expected fixed-size tuple, got %v", sw.Properties["color"])
	}
	if sw.Properties["owner"]["x-relationship"] != true || sw.Properties["owner"]["type"] != "array" {
		t.Fatalf("unexpected relationship: %v", sw.Properties["owner"])
	}
}

func TestRender_UnknownValueType(t *testing.T) {
	layer := registryLayer()
	cls, _ := layer.Class("Switch")
	cls.Properties.Set("bad", &schema.PropertySpec{Name: "bad", Kind: schema.KindAttribute, TypeName: "quaternion"})

	if _, err := openapi.New(openapi.Options{}).Render(context.Background(), layer, "lights"); err == nil {
		t.Fatalf("expected an error for an unknown value type")
	}
}

func TestWrite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), openapi.FileName)
	exporter := openapi.New(openapi.Options{Title: "Lights API", Version: "2.0.0"})

	for i, want := range []report.FileStatus{report.StatusWrote, report.StatusUnchanged} {
		rep := report.New()
		if err := exporter.Write(context.Background(), path, registryLayer(), "lights", rep); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		if got, _ := rep.File(path); got.Status != want {
			t.Fatalf("run %d: expected %s, got %s", i, want, got.Status)
		}
	}
}
